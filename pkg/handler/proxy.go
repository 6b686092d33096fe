package handler

import (
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te", // canonicalized version of "TE"
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// The body is re-sent buffered and decoded, so these would lie about it.
var bodyHeaders = []string{
	"Content-Encoding",
	"Content-Length",
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func delHeaders(header http.Header, names []string) {
	for _, h := range names {
		header.Del(h)
	}
}

func appendHostToXForwardHeader(header http.Header, host string) {
	// If we aren't the first proxy retain prior
	// X-Forwarded-For information as a comma+space
	// separated list and fold multiple headers into one.
	if prior, ok := header["X-Forwarded-For"]; ok {
		host = strings.Join(prior, ", ") + ", " + host
	}
	header.Set("X-Forwarded-For", host)
}

type proxy struct {
	origin *url.URL
	follow *http.Client
	direct *http.Client
	logger *zap.Logger

	mu      sync.Mutex
	lastURL string
}

func newProxy(origin *url.URL, logger *zap.Logger) *proxy {
	return &proxy{
		origin: origin,
		follow: &http.Client{},
		direct: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger,
		lastURL: origin.String(),
	}
}

func (p *proxy) target(req *http.Request) string {
	target := url.URL{
		Scheme:   p.origin.Scheme,
		Host:     p.origin.Host,
		Path:     req.URL.Path,
		RawPath:  req.URL.RawPath,
		RawQuery: req.URL.RawQuery,
	}
	return target.String()
}

// referer records target as the latest proxied URL and returns the one
// before it. Concurrent requests see each other in whatever order they
// reach the lock.
func (p *proxy) referer(target string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	previous := p.lastURL
	p.lastURL = target
	return previous
}

func (p *proxy) ServeHTTP(wr http.ResponseWriter, req *http.Request) {
	target := p.target(req)

	newreq, err := http.NewRequestWithContext(req.Context(), req.Method, target, nil)
	if err != nil {
		p.logger.Error("building upstream request", zap.String("url", target), zap.Error(err))
		http.Error(wr, "Server Error", http.StatusInternalServerError)
		return
	}

	copyHeader(newreq.Header, req.Header)
	delHeaders(newreq.Header, hopHeaders)
	// Let the transport negotiate and decode compression itself.
	newreq.Header.Del("Accept-Encoding")
	newreq.Host = p.origin.Host
	newreq.Header.Set("Referer", p.referer(target))

	if clientIP, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		appendHostToXForwardHeader(newreq.Header, clientIP)
	}

	client := p.direct
	if req.Method == http.MethodGet {
		client = p.follow
	}

	resp, err := client.Do(newreq)
	if err != nil {
		p.logger.Warn("upstream request failed", zap.String("url", target), zap.Error(err))
		http.Error(wr, "Bad Gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Warn("reading upstream response", zap.String("url", target), zap.Error(err))
		http.Error(wr, "Bad Gateway", http.StatusBadGateway)
		return
	}

	delHeaders(resp.Header, hopHeaders)
	delHeaders(resp.Header, bodyHeaders)

	copyHeader(wr.Header(), resp.Header)
	wr.Header().Set("Content-Length", strconv.Itoa(len(content)))
	wr.WriteHeader(resp.StatusCode)
	if _, err := wr.Write(content); err != nil {
		p.logger.Debug("writing response", zap.String("url", target), zap.Error(err))
	}

	p.logger.Debug("proxied", zap.String("method", req.Method), zap.String("url", target), zap.Int("status", resp.StatusCode))
}
