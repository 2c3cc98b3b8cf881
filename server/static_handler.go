package server

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync"

	"moodtune/logger"
)

// StaticHandler serves files from the web directory.
type StaticHandler struct {
	dir              string
	defaultImagePath string
	files            http.Handler
}

// NewStaticHandler creates a StaticHandler.
func NewStaticHandler(dir, defaultImagePath string) *StaticHandler {
	return &StaticHandler{
		dir:              dir,
		defaultImagePath: defaultImagePath,
		files:            http.FileServer(http.Dir(dir)),
	}
}

// ServeHTTP implements http.Handler. The placeholder cover is generated when
// the web directory does not provide one.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	if clean == h.defaultImagePath && !h.exists(clean) {
		h.servePlaceholder(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}

func (h *StaticHandler) exists(urlPath string) bool {
	info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(urlPath)))
	return err == nil && !info.IsDir()
}

func (h *StaticHandler) servePlaceholder(w http.ResponseWriter, r *http.Request) {
	data := placeholderImage()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(data)
	}
}

var (
	placeholderOnce sync.Once
	placeholderPNG  []byte
)

// placeholderImage renders a flat 64x64 cover once.
func placeholderImage() []byte {
	placeholderOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		fill := color.RGBA{R: 0x6c, G: 0x5c, B: 0xe7, A: 0xff}
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				img.Set(x, y, fill)
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			logger.Error("[Static] failed to render placeholder", logger.ErrorField(err))
			return
		}
		placeholderPNG = buf.Bytes()
	})
	return placeholderPNG
}
