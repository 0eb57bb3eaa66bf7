// internal/server/router.go
//
// 本檔負責 HTTP 路由註冊與中介層（存取日誌、OpenTelemetry）。
// handler.go 定義「如何處理請求」，router.go 定義「請求如何被導向」。
package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Router 建立並回傳整個 HTTP 處理鏈；gatherer 為 nil 時使用 prometheus.DefaultGatherer。
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	v1 := http.NewServeMux()

	v1.HandleFunc("/health", s.health)
	v1.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// 身分：
	//   - POST   /owners
	//   - DELETE /owners/{owner}
	//   - GET    /owners/{owner}/accounts
	//   - POST   /owners/{owner}/accounts
	v1.HandleFunc("/owners", s.owners)
	v1.HandleFunc("/owners/", s.ownerSubroutes)

	// 帳戶子操作：balance / statement / deposit / withdraw
	v1.HandleFunc("/accounts/", s.accountSubroutes)

	v1.HandleFunc("/transfer", s.transfer)

	// 所有端點掛在 /api/v1/ 下，同時保留根路徑方便本地開發。
	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", v1))
	root.Handle("/", v1)

	return otelhttp.NewHandler(s.accessLog(root), "bank-api")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// accessLog 以 zap 記錄每個請求。
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
