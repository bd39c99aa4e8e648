package feed

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"coin-feed/internal/domain"
	"coin-feed/internal/event"
	"coin-feed/internal/storage"
)

// maxIngestBody caps a single ingest request body.
const maxIngestBody = 1 << 20

// IngestHandler exposes the recorder over HTTP for the indexer that observes
// chain activity. Routes (Go 1.22 patterns):
//
//	POST /ingest/account
//	POST /ingest/{kind}   kind is coin, swap, chart, balance, curve or thread
//
// A successful record answers 201 with the published envelope.
func IngestHandler(rec *Recorder, log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /ingest/account", func(w http.ResponseWriter, r *http.Request) {
		var a domain.Account
		if !decode(w, r, &a) {
			return
		}
		if err := rec.RecordAccount(r.Context(), &a); err != nil {
			writeRecordError(w, log, "account", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /ingest/{kind}", func(w http.ResponseWriter, r *http.Request) {
		kind := r.PathValue("kind")

		var (
			env event.Envelope
			err error
		)
		switch kind {
		case event.KindCoin:
			var c domain.Coin
			if !decode(w, r, &c) {
				return
			}
			env, err = rec.RecordCoin(r.Context(), &c)
		case event.KindSwap:
			var s domain.Swap
			if !decode(w, r, &s) {
				return
			}
			env, err = rec.RecordSwap(r.Context(), &s)
		case event.KindChart:
			var c domain.ChartWrapper
			if !decode(w, r, &c) {
				return
			}
			env, err = rec.RecordChart(r.Context(), &c)
		case event.KindBalance:
			var b domain.BalanceWrapper
			if !decode(w, r, &b) {
				return
			}
			env, err = rec.RecordBalance(r.Context(), &b)
		case event.KindCurve:
			var c domain.Curve
			if !decode(w, r, &c) {
				return
			}
			env, err = rec.RecordCurve(r.Context(), &c)
		case event.KindThread:
			var t domain.ThreadWrapper
			if !decode(w, r, &t) {
				return
			}
			env, err = rec.RecordThread(r.Context(), &t)
		default:
			http.Error(w, "unknown kind: "+kind, http.StatusNotFound)
			return
		}

		if err != nil {
			writeRecordError(w, log, kind, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(env); err != nil {
			log.WithError(err).Warn("write ingest response")
		}
	})

	return mux
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeRecordError(w http.ResponseWriter, log *logrus.Logger, kind string, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrDuplicateKey):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, storage.ErrMissingReference), errors.Is(err, storage.ErrNotFound):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.WithError(err).WithField("kind", kind).Error("record failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
