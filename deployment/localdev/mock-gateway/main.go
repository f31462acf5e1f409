package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Local stand-in for the remote-sensing gateways. Serves plausible fixed
// statistics so the engine can run end to end without upstream credentials.

type statisticsRequest struct {
	BBox  []float64 `json:"bbox"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/statistics", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}
		writeJSON(w, map[string]any{
			"metrics": map[string]float64{
				"vegetation_index": 0.62,
				"water_index":      0.18,
				"pigment_index":    0.21,
			},
			"bbox": req.BBox,
		})
	})

	mux.HandleFunc("/api/v1/precipitation", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}
		writeJSON(w, map[string]any{
			"metrics": map[string]float64{
				"rainfall_mm": 48.5,
			},
			"bbox": req.BBox,
		})
	})

	mux.HandleFunc("/api/v1/temperature", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}
		writeJSON(w, map[string]any{
			"metrics": map[string]float64{
				"temperature_c": 23.4,
			},
			"bbox": req.BBox,
		})
	})

	logger := log.New(log.Writer(), "mock-gateway ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":9090",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :9090")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (statisticsRequest, bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return statisticsRequest{}, false
	}
	var req statisticsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return statisticsRequest{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
