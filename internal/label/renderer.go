package label

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/linecontrol/boxline/internal/config"
	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

// Page geometry in millimeters. The printer takes 120x75 thermal stock.
const (
	pageWidth  = 120.0
	pageHeight = 75.0

	qrSize = 35.0
	qrLeft = 8.0

	textLeft  = 60.0
	textRight = pageWidth - 5.0

	lineStep = 7.0

	minFontSize   = 8.0
	brandFontSize = 32.0
	minBrandSize  = 14.0
)

// creationStamp pins the document metadata so identical input yields
// byte-identical output.
var creationStamp = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// RenderError reports a failure inside the PDF engine or font loading.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("label render: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Content carries the human-readable fields printed next to the QR code.
// Every page of one document shares the same content; only the code and the
// box sequence number differ.
type Content struct {
	Type        string
	Category    string
	Recipe      string
	Brand       string
	UnitsPerBox int
	Date        string
	Time        string
}

type Renderer struct {
	log  *zap.Logger
	line *config.LineHolder
}

func NewRenderer(log *zap.Logger, line *config.LineHolder) *Renderer {
	return &Renderer{
		log:  log.Named("label.renderer"),
		line: line,
	}
}

// Render produces one page per box code. A zero-length code list yields an
// empty document rather than a blank page.
func (r *Renderer) Render(codes []string, content Content) ([]byte, error) {
	if len(codes) == 0 {
		return []byte{}, nil
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetCreationDate(creationStamp)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	family, err := r.loadFont(pdf)
	if err != nil {
		return nil, err
	}

	brand := strings.TrimSpace(content.Brand)
	if brand == "" {
		brand = "Brand"
	}
	typeCat := strings.ToUpper(strings.TrimSpace(content.Type + " " + content.Category))
	recipe := strings.TrimSpace(content.Recipe)
	units := fmt.Sprintf("Box: %d pcs", content.UnitsPerBox)
	mfd := strings.TrimSpace("Mfd: " + content.Date + " " + content.Time)

	for i, code := range codes {
		// The sequence number is per page, everything else repeats.
		lines := []fittedLine{
			{text: typeCat, size: 18, min: 12},
			{text: recipe, size: 13, min: minFontSize},
			{text: fmt.Sprintf("Box %d", i+1), size: 13, min: minFontSize},
			{text: units, size: 12, min: minFontSize},
			{text: mfd, size: 14, min: minFontSize},
		}

		pdf.AddPage()

		if err := drawQR(pdf, code, fmt.Sprintf("qr-%d", i)); err != nil {
			return nil, &RenderError{Err: err}
		}

		columnWidth := textRight - textLeft

		// The brand banner runs across the whole label, above the code.
		size := fitSize(pdf, family, brand, brandFontSize, minBrandSize, pageWidth-10)
		pdf.SetFont(family, "B", size)
		pdf.SetXY(5, 4)
		pdf.CellFormat(pageWidth-10, 12, brand, "", 0, "C", false, 0, "")

		blockTop := pageHeight/2 - lineStep*float64(len(lines))/2 + 5
		y := blockTop
		for _, line := range lines {
			if line.text == "" {
				y += lineStep
				continue
			}
			size := fitSize(pdf, family, line.text, line.size, line.min, columnWidth)
			pdf.SetFont(family, "B", size)
			pdf.SetXY(textLeft, y)
			pdf.CellFormat(columnWidth, lineStep, line.text, "", 0, "C", false, 0, "")
			y += lineStep
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

type fittedLine struct {
	text string
	size float64
	min  float64
}

// fitSize walks the font size down until the string fits the column, stopping
// at the floor even when it still overflows.
func fitSize(pdf *gofpdf.Fpdf, family, text string, start, min, maxWidth float64) float64 {
	size := start
	for size > min {
		pdf.SetFont(family, "B", size)
		if pdf.GetStringWidth(text) <= maxWidth {
			return size
		}
		size--
	}
	return min
}

func drawQR(pdf *gofpdf.Fpdf, code, imageName string) error {
	qrCode, err := qr.Encode(code, qr.M, qr.Auto)
	if err != nil {
		return fmt.Errorf("encode qr %q: %w", code, err)
	}
	qrCode, err = barcode.Scale(qrCode, 512, 512)
	if err != nil {
		return fmt.Errorf("scale qr: %w", err)
	}

	// The scaled barcode encodes as 16-bit grayscale, which the PDF
	// engine cannot embed; redraw it into an 8-bit image first.
	rgba := image.NewRGBA(qrCode.Bounds())
	draw.Draw(rgba, rgba.Bounds(), qrCode, qrCode.Bounds().Min, draw.Src)

	var img bytes.Buffer
	if err := png.Encode(&img, rgba); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imageName, opts, &img)
	pdf.ImageOptions(imageName, qrLeft, (pageHeight-qrSize)/2, qrSize, qrSize, false, opts, 0, "")
	return pdf.Error()
}

// loadFont registers the configured UTF-8 font when present so labels can
// carry non-latin product names. Missing font files fall back to the core
// Helvetica face.
func (r *Renderer) loadFont(pdf *gofpdf.Fpdf) (string, error) {
	cfg := r.line.Current()
	if cfg.LabelFontFile == "" {
		return "Helvetica", nil
	}
	path := filepath.Join(cfg.LabelFontDir, cfg.LabelFontFile)
	if _, err := os.Stat(path); err != nil {
		r.log.Warn("label font not found, using core font", zap.String("path", path))
		return "Helvetica", nil
	}
	pdf.AddUTF8Font("labelfont", "B", path)
	if err := pdf.Error(); err != nil {
		return "", &RenderError{Err: fmt.Errorf("load font %s: %w", path, err)}
	}
	return "labelfont", nil
}
