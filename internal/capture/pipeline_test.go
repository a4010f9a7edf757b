package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarbrain/assistant/internal/llm"
	"github.com/bazaarbrain/assistant/internal/model"
	"github.com/bazaarbrain/assistant/internal/store"
)

type fakeGenerator struct {
	name string
	out  string
	err  error
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	return f.out, f.err
}

func (f *fakeGenerator) GenerateVision(ctx context.Context, system, user string, img []byte, mime string) (string, error) {
	return f.out, f.err
}

type fakeStore struct {
	store.Store

	saved   []*model.Transaction
	saveErr error
}

func (f *fakeStore) SaveTransaction(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	out := *tx
	out.ID = "tx-1"
	f.saved = append(f.saved, &out)
	return &out, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, w, h), 0o644))
	return path
}

// --- preprocess ---

func TestPreprocess_DownscalesLargeImage(t *testing.T) {
	out, mime := preprocess(pngBytes(t, 2048, 1000))

	assert.Equal(t, "image/jpeg", mime)
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1024, decoded.Bounds().Dx())
	assert.Equal(t, 500, decoded.Bounds().Dy())
}

func TestPreprocess_KeepsSmallImageSize(t *testing.T) {
	out, _ := preprocess(pngBytes(t, 200, 100))

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())
}

func TestPreprocess_UndecodableBytesPassThrough(t *testing.T) {
	raw := []byte("definitely not an image")

	out, mime := preprocess(raw)

	assert.Equal(t, raw, out)
	assert.Equal(t, "image/jpeg", mime)
}

// --- Process ---

func TestProcess_BackendsAgree(t *testing.T) {
	extracted := `{"items": [{"name": "rice", "quantity": 2, "price": 50}], "total": 100}`
	pair := llm.Pair{
		Primary:   &fakeGenerator{name: "openai", out: extracted},
		Secondary: &fakeGenerator{name: "gemini", out: extracted},
	}
	st := &fakeStore{}
	p := NewPipeline(pair, st)
	path := writeTestImage(t, 100, 100)

	out, err := p.Process(context.Background(), "u1", path)

	require.NoError(t, err)
	assert.Equal(t, "agree", out.String("source"))
	assert.Equal(t, path, out.String("image_path"))
	assert.NotEmpty(t, out.String("processing_timestamp"))
	assert.Equal(t, true, out["openai_success"])
	assert.Equal(t, true, out["gemini_success"])
	assert.Equal(t, "tx-1", out.String("transaction_id"))
	require.Len(t, st.saved, 1)
	assert.Equal(t, "image", st.saved[0].Source)
}

func TestProcess_BothBackendsFail(t *testing.T) {
	pair := llm.Pair{
		Primary:   &fakeGenerator{name: "openai", err: eris.New("quota")},
		Secondary: &fakeGenerator{name: "gemini", out: "no json here"},
	}
	p := NewPipeline(pair, nil)
	path := writeTestImage(t, 100, 100)

	out, err := p.Process(context.Background(), "u1", path)

	require.NoError(t, err)
	assert.Equal(t, "both_failed", out.String("source"))
	assert.Empty(t, out.List("items"))
	assert.Equal(t, false, out["openai_success"])
	assert.Equal(t, false, out["gemini_success"])
}

func TestProcess_OneBackendSucceeds(t *testing.T) {
	pair := llm.Pair{
		Primary:   &fakeGenerator{name: "openai", err: eris.New("down")},
		Secondary: &fakeGenerator{name: "gemini", out: `{"items": [{"name": "oil"}], "total": 120}`},
	}
	p := NewPipeline(pair, nil)
	path := writeTestImage(t, 100, 100)

	out, err := p.Process(context.Background(), "u1", path)

	require.NoError(t, err)
	assert.Equal(t, "secondary_only", out.String("source"))
	assert.Len(t, out.List("items"), 1)
}

func TestProcess_UnreadableFile(t *testing.T) {
	p := NewPipeline(llm.Pair{}, nil)

	_, err := p.Process(context.Background(), "u1", "/nonexistent/receipt.png")
	assert.Error(t, err)
}

func TestProcess_SaveFailureAnnotatesResult(t *testing.T) {
	extracted := `{"items": [], "total": 0}`
	pair := llm.Pair{
		Primary:   &fakeGenerator{name: "openai", out: extracted},
		Secondary: &fakeGenerator{name: "gemini", out: extracted},
	}
	p := NewPipeline(pair, &fakeStore{saveErr: eris.New("disk full")})
	path := writeTestImage(t, 100, 100)

	out, err := p.Process(context.Background(), "u1", path)

	require.NoError(t, err)
	assert.Contains(t, out.String("db_save_error"), "disk full")
}
