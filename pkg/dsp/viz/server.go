package viz

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
)

type ImageContainer struct {
	name string
	data []byte
}

type Producer interface {
	Name() string
	GetImage() *ImageContainer
	AddPlotOption(opt PlotOptions)
}

// Server renders registered producers on a timer and serves the PNGs
// over HTTP. Rendering only happens while somebody is actually looking
// at the page; plotting is too expensive to run unobserved.
type Server struct {
	mu             sync.RWMutex
	producers      map[string]Producer
	images         map[string]*ImageContainer
	srv            *http.Server
	updateInterval time.Duration
	lastViewed     time.Time
}

func NewServer(port int, updateInterval time.Duration) *Server {
	return &Server{
		producers:      make(map[string]Producer),
		images:         make(map[string]*ImageContainer),
		srv:            &http.Server{Addr: fmt.Sprintf(":%d", port)},
		updateInterval: updateInterval,
	}
}

func (s *Server) Register(p Producer) {
	s.mu.Lock()
	s.producers[p.Name()] = p
	s.mu.Unlock()
}

func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

func (s *Server) renderAll() {
	s.mu.RLock()
	viewed := time.Since(s.lastViewed) < 5*time.Second
	producers := make([]Producer, 0, len(s.producers))
	for _, p := range s.producers {
		producers = append(producers, p)
	}
	s.mu.RUnlock()

	if !viewed {
		return
	}

	var wg sync.WaitGroup
	for _, p := range producers {
		wg.Add(1)
		go func(p Producer) {
			defer wg.Done()
			img := p.GetImage()
			if img == nil {
				return
			}
			s.mu.Lock()
			s.images[img.name] = img
			s.mu.Unlock()
		}(p)
	}
	wg.Wait()
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.updateInterval):
				s.renderAll()
			}
		}
	}()

	handler := httprouter.New()
	handler.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s.mu.Lock()
		s.lastViewed = time.Now()
		names := make([]string, 0, len(s.producers))
		for name := range s.producers {
			names = append(names, name)
		}
		s.mu.Unlock()
		sort.Strings(names)

		w.Header().Add("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Acoustic Link Viz</title></head>`))
		w.Write([]byte(fmt.Sprintf(`
		<script type="text/javascript">
			window.onload = function() {
				var imgs = document.getElementsByTagName('img');
				setInterval(function() {
					for (var i = 0; i < imgs.length; i++) {
						imgs[i].src = imgs[i].src.split("?")[0] + "?" + new Date().getTime();
					}
				}, %d);
			}
		</script>`, s.updateInterval.Milliseconds())))
		w.Write([]byte(`<body style='background-color: black'>`))
		w.Write([]byte(`<div style="display: flex; flex-direction: row; flex-wrap: wrap">`))
		for _, name := range names {
			w.Write([]byte(fmt.Sprintf(`<div><img src="/img/%s?%d" /></div>`, name, time.Now().UnixMicro())))
		}
		w.Write([]byte(`</div></body></html>`))
	})

	handler.GET("/img/:img", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		s.mu.Lock()
		s.lastViewed = time.Now()
		img, ok := s.images[params.ByName("img")]
		s.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Add("Content-Type", "image/png")
		w.Write(img.data)
	})

	s.srv.Handler = handler

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
