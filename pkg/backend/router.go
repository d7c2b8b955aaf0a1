package backend

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mattfenwick/pickupscan/pkg/scanner"
	"github.com/mattfenwick/pickupscan/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func NewRouter(server *Server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")
	r.HandleFunc("/api/scan", server.handleScan).Methods("POST")
	r.HandleFunc("/api/scans", server.handleListScans).Methods("GET")
	r.Handle("/metrics", telemetry.MetricsHandler()).Methods("GET")
	return r
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.Tracer("pickupscan/backend").Start(r.Context(), "ingest-scan")
	defer span.End()

	var record scanner.ScanRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		logrus.Errorf("unable to unmarshal JSON for scan POST: %s", err.Error())
		telemetry.RecordEvent("ingest", "invalid json", err)
		span.SetStatus(codes.Error, "invalid json")
		writeJson(w, http.StatusBadRequest, &scanner.ScanResult{Ok: false, Error: "Invalid JSON body"})
		return
	}
	span.SetAttributes(attribute.String("pharmacy_public_id", record.PharmacyPublicID))

	event, err := s.RecordScan(ctx, &record, ClientInfo{
		UserAgent: r.UserAgent(),
		IPAddress: clientIP(r),
	})
	if err != nil {
		var rejection *Rejection
		status := http.StatusInternalServerError
		message := "Internal error"
		if errors.As(err, &rejection) {
			status = http.StatusBadRequest
			message = rejection.Message
		} else {
			logrus.Errorf("unable to record scan: %+v", err)
		}
		telemetry.RecordEvent("ingest", "rejected", err)
		span.SetStatus(codes.Error, message)
		writeJson(w, status, &scanner.ScanResult{Ok: false, Error: message})
		return
	}
	writeJson(w, http.StatusOK, &scanner.ScanResult{Ok: true, ScanID: event.ID})
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, s.ListScans())
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJson(w http.ResponseWriter, statusCode int, obj interface{}) {
	bytes, err := json.Marshal(obj)
	if err != nil {
		logrus.Errorf("unable to marshal json response: %+v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set(http.CanonicalHeaderKey("content-type"), "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(bytes); err != nil {
		logrus.Errorf("unable to write response: %+v", err)
	}
}
