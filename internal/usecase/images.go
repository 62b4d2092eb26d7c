package usecase

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/inventory-importer/internal/domain/entity"
)

// ImageSource exposes pictures anchored to sheet cells. Coordinates are
// zero-based row/column.
type ImageSource interface {
	PictureAt(row, col int) (data []byte, ext string, ok bool)
}

// Anchors drift when spreadsheets are edited by hand: a picture meant for the
// image column often sits one cell left or a couple of cells right of it.
var anchorOffsets = []int{0, -1, 1, 2}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}

// Public prefix under which every resolved picture is served.
const managedImagePrefix = "/uploads/products/"

// managedImagePath reports whether path already points into the managed
// upload directory. Bare tokens left over from earlier imports do not, and
// neither does an empty path.
func managedImagePath(path string) bool {
	return strings.HasPrefix(path, managedImagePrefix)
}

// Curated furniture photos served by keyword category. Picks are deterministic
// per product name so repeated runs fetch the same URL.
var remoteImageSources = map[string][]string{
	"chair": {
		"https://images.pexels.com/photos/1350789/pexels-photo-1350789.jpeg",
		"https://images.pexels.com/photos/5695904/pexels-photo-5695904.jpeg",
		"https://images.pexels.com/photos/2082090/pexels-photo-2082090.jpeg",
		"https://images.pexels.com/photos/1148955/pexels-photo-1148955.jpeg",
		"https://images.pexels.com/photos/106839/pexels-photo-106839.jpeg",
		"https://images.pexels.com/photos/5705090/pexels-photo-5705090.jpeg",
		"https://images.pexels.com/photos/5706265/pexels-photo-5706265.jpeg",
	},
	"table": {
		"https://images.pexels.com/photos/1957478/pexels-photo-1957478.jpeg",
		"https://images.pexels.com/photos/3097112/pexels-photo-3097112.jpeg",
		"https://images.pexels.com/photos/2762247/pexels-photo-2762247.jpeg",
		"https://images.pexels.com/photos/3932929/pexels-photo-3932929.jpeg",
		"https://images.pexels.com/photos/1813502/pexels-photo-1813502.jpeg",
	},
	"sofa": {
		"https://images.pexels.com/photos/3757055/pexels-photo-3757055.jpeg",
		"https://images.pexels.com/photos/1866149/pexels-photo-1866149.jpeg",
		"https://images.pexels.com/photos/276528/pexels-photo-276528.jpeg",
		"https://images.pexels.com/photos/2079249/pexels-photo-2079249.jpeg",
	},
	"other": {
		"https://images.pexels.com/photos/1350789/pexels-photo-1350789.jpeg",
		"https://images.pexels.com/photos/2762247/pexels-photo-2762247.jpeg",
		"https://images.pexels.com/photos/1866149/pexels-photo-1866149.jpeg",
	},
}

// ImageResolver finds a picture for a product by trying strategies in a fixed
// order: embedded sheet picture, filesystem search, remote fetch, generated
// placeholder. The first success wins.
type ImageResolver struct {
	Dirs         []string
	OutDir       string
	FetchEnabled bool
	Client       *http.Client
	Attempts     int
	Backoff      time.Duration

	pickURL func(name string) string
}

// ResolveRequest carries everything one resolution needs.
type ResolveRequest struct {
	ProductID   string
	ProductName string
	SKU         string
	ImageRef    *string
	SheetRow    int
	ImageCols   []int
	Source      ImageSource
}

// NewImageResolver builds a resolver, filling in sane defaults for anything
// left zero.
func NewImageResolver(dirs []string, outDir string, fetchEnabled bool, fetchTimeout time.Duration, attempts int, backoff time.Duration) *ImageResolver {
	if attempts <= 0 {
		attempts = 1
	}
	return &ImageResolver{
		Dirs:         dirs,
		OutDir:       outDir,
		FetchEnabled: fetchEnabled,
		Client:       &http.Client{Timeout: fetchTimeout},
		Attempts:     attempts,
		Backoff:      backoff,
		pickURL:      pickRemoteURL,
	}
}

// Resolve returns the public image path and the strategy that produced it.
// Exhaustion of all strategies is not an error: the caller gets ImageNone and
// the product simply stays without a picture.
func (r *ImageResolver) Resolve(ctx context.Context, req ResolveRequest) (string, entity.ImageStrategy) {
	if path, ok := r.fromEmbedded(req); ok {
		return path, entity.ImageEmbedded
	}
	if path, ok := r.fromFilesystem(req); ok {
		return path, entity.ImageFile
	}
	if r.FetchEnabled {
		if path, ok := r.fromRemote(ctx, req); ok {
			return path, entity.ImageRemote
		}
	}
	if path, ok := r.fromPlaceholder(req); ok {
		return path, entity.ImagePlaceholder
	}
	return "", entity.ImageNone
}

func (r *ImageResolver) fromEmbedded(req ResolveRequest) (string, bool) {
	if req.Source == nil {
		return "", false
	}
	for _, col := range req.ImageCols {
		if col < 0 {
			continue
		}
		for _, offset := range anchorOffsets {
			c := col + offset
			if c < 0 {
				continue
			}
			data, ext, ok := req.Source.PictureAt(req.SheetRow, c)
			if !ok {
				continue
			}
			path, err := r.writeImage(req.ProductID, ext, data)
			if err != nil {
				log.Printf("[images] write embedded picture for %s: %v", req.ProductName, err)
				continue
			}
			return path, true
		}
	}
	return "", false
}

// fromFilesystem walks the configured directories looking for a file whose
// name contains the image reference (or SKU when the sheet had none),
// case-insensitively.
func (r *ImageResolver) fromFilesystem(req ResolveRequest) (string, bool) {
	token := req.SKU
	if req.ImageRef != nil && *req.ImageRef != "" {
		token = *req.ImageRef
	}
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return "", false
	}

	for _, dir := range r.Dirs {
		match := findImageFile(dir, token)
		if match == "" {
			continue
		}
		ext := strings.ToLower(filepath.Ext(match))
		dst := ""
		err := r.withRetry(func() error {
			var copyErr error
			dst, copyErr = r.copyImage(req.ProductID, ext, match)
			return copyErr
		})
		if err != nil {
			log.Printf("[images] copy %s for %s: %v", match, req.ProductName, err)
			continue
		}
		return dst, true
	}
	return "", false
}

func findImageFile(dir, token string) string {
	var found string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found != "" {
			return fs.SkipAll
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.Contains(name, token) {
			return nil
		}
		for _, ext := range imageExtensions {
			if strings.HasSuffix(name, ext) {
				found = path
				return fs.SkipAll
			}
		}
		return nil
	})
	return found
}

func (r *ImageResolver) fromRemote(ctx context.Context, req ResolveRequest) (string, bool) {
	url := r.pickURL(req.ProductName)
	ext := filepath.Ext(url)
	if ext == "" {
		ext = ".jpg"
	}

	var body []byte
	err := r.withRetry(func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := r.Client.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		log.Printf("[images] fetch %s for %s: %v", url, req.ProductName, err)
		return "", false
	}

	path, err := r.writeImage(req.ProductID, ext, body)
	if err != nil {
		log.Printf("[images] write fetched picture for %s: %v", req.ProductName, err)
		return "", false
	}
	return path, true
}

func (r *ImageResolver) fromPlaceholder(req ResolveRequest) (string, bool) {
	data, err := RenderPlaceholder(req.ProductName, placeholderWidth, placeholderHeight)
	if err != nil {
		log.Printf("[images] render placeholder for %s: %v", req.ProductName, err)
		return "", false
	}
	path, err := r.writeImage(req.ProductID, ".png", data)
	if err != nil {
		log.Printf("[images] write placeholder for %s: %v", req.ProductName, err)
		return "", false
	}
	return path, true
}

// pickRemoteURL categorizes the product by name keywords and picks a URL
// deterministically so the same product always maps to the same photo.
func pickRemoteURL(name string) string {
	lower := strings.ToLower(name)
	category := "other"
	switch {
	case strings.Contains(lower, "chair") || strings.Contains(lower, "stool"):
		category = "chair"
	case strings.Contains(lower, "table") || strings.Contains(lower, "desk"):
		category = "table"
	case strings.Contains(lower, "sofa") || strings.Contains(lower, "couch") || strings.Contains(lower, "lounge"):
		category = "sofa"
	}

	urls := remoteImageSources[category]
	h := 0
	for _, c := range name {
		h += int(c)
	}
	return urls[h%len(urls)]
}

func (r *ImageResolver) writeImage(productID, ext string, data []byte) (string, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	filename := fmt.Sprintf("product_%s%s", productID, strings.ToLower(ext))
	full := filepath.Join(r.OutDir, filename)

	err := r.withRetry(func() error {
		if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(full, data, 0o644)
	})
	if err != nil {
		return "", err
	}
	return managedImagePrefix + filename, nil
}

func (r *ImageResolver) copyImage(productID, ext, src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return r.writeImage(productID, ext, data)
}

func (r *ImageResolver) withRetry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < r.Attempts {
			time.Sleep(r.Backoff * time.Duration(attempt))
		}
	}
	return err
}
