package label

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/linecontrol/boxline/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	holder, err := config.NewStaticLineHolder(config.DefaultLineConfig())
	require.NoError(t, err)
	return NewRenderer(zaptest.NewLogger(t), holder)
}

func pageCount(data []byte) int {
	return bytes.Count(data, []byte("/Type /Page")) - bytes.Count(data, []byte("/Type /Pages"))
}

// pageText inflates every content stream in the document and concatenates
// whatever decompresses. Image streams fail to inflate and are skipped.
func pageText(t *testing.T, data []byte) string {
	t.Helper()
	var out bytes.Buffer
	rest := data
	for {
		start := bytes.Index(rest, []byte("stream\n"))
		if start < 0 {
			break
		}
		rest = rest[start+len("stream\n"):]
		end := bytes.Index(rest, []byte("endstream"))
		if end < 0 {
			break
		}
		body := rest[:end]
		rest = rest[end+len("endstream"):]

		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			continue
		}
		if chunk, err := io.ReadAll(zr); err == nil {
			out.Write(chunk)
		}
		zr.Close()
	}
	return out.String()
}

func sampleContent() Content {
	return Content{
		Type:        "Sauce",
		Category:    "Classic",
		Recipe:      "Tomato",
		Brand:       "Olivia",
		UnitsPerBox: 12,
		Date:        "05.03.26",
		Time:        "10:00",
	}
}

func TestRenderOnePagePerCode(t *testing.T) {
	r := newTestRenderer(t)

	for _, n := range []int{1, 3, 7} {
		codes := make([]string, n)
		for i := range codes {
			codes[i] = "code"
		}
		data, err := r.Render(codes, sampleContent())
		require.NoError(t, err)
		require.Equal(t, n, pageCount(data))
	}
}

func TestRenderNumbersBoxesSequentially(t *testing.T) {
	r := newTestRenderer(t)

	data, err := r.Render([]string{"a", "b", "c"}, sampleContent())
	require.NoError(t, err)
	require.Equal(t, 3, pageCount(data))

	text := pageText(t, data)
	require.Contains(t, text, "Box 1")
	require.Contains(t, text, "Box 2")
	require.Contains(t, text, "Box 3")
	require.NotContains(t, text, "Box 4")
}

func TestRenderEmptyInput(t *testing.T) {
	r := newTestRenderer(t)

	data, err := r.Render(nil, sampleContent())
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestRenderDeterministic(t *testing.T) {
	r := newTestRenderer(t)
	codes := []string{"a0b1", "c2d3"}

	first, err := r.Render(codes, sampleContent())
	require.NoError(t, err)
	second, err := r.Render(codes, sampleContent())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRenderLongTextStillFits(t *testing.T) {
	r := newTestRenderer(t)
	content := sampleContent()
	content.Brand = "An Extraordinarily Long Brand Name That Never Ends"
	content.Recipe = "Slow Roasted Heirloom Tomato With Smoked Paprika"

	data, err := r.Render([]string{"code"}, content)
	require.NoError(t, err)
	require.Equal(t, 1, pageCount(data))
}

func TestRenderLongTypeKeepsReadableSize(t *testing.T) {
	r := newTestRenderer(t)
	content := sampleContent()
	content.Type = "Extra Virgin Cold Pressed"
	content.Category = "Limited Harvest Reserve Selection"

	data, err := r.Render([]string{"code"}, content)
	require.NoError(t, err)

	text := pageText(t, data)
	for _, size := range []string{" 8.00 Tf", " 9.00 Tf", " 10.00 Tf", " 11.00 Tf"} {
		require.NotContains(t, text, size)
	}
}

func TestRenderBlankBrandPlaceholder(t *testing.T) {
	r := newTestRenderer(t)
	content := sampleContent()
	content.Brand = "   "

	data, err := r.Render([]string{"code"}, content)
	require.NoError(t, err)
	require.Equal(t, 1, pageCount(data))
}
