package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/theapemachine/jobfinder-mcp/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// GrayscaleTool converts a base64 image to an 8-bit grayscale PNG.
type GrayscaleTool struct{}

func NewGrayscaleTool() *GrayscaleTool {
	return &GrayscaleTool{}
}

var grayscaleDescription = RichToolDescription{
	Description: "Convert an image to black and white and save it.",
	UseWhen:     "Use this tool when the user provides an image URL and requests it to be converted to black and white.",
	SideEffects: "The image will be processed and saved in a black and white format.",
}

func (gt *GrayscaleTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"make_img_black_and_white",
		mcp.WithDescription(grayscaleDescription.String()),
		mcp.WithString("puch_image_data",
			mcp.Description("Base64-encoded image data to convert to black and white"),
			mcp.Required(),
		),
	)
}

func (gt *GrayscaleTool) Handle(
	ctx context.Context, req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	data, err := req.RequireString("puch_image_data")
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessagef("%v", err)
	}

	out, err := Grayscale(data)
	if err != nil {
		log.FromContext(ctx).Error("grayscale failed", "error", err)
		return nil, errors.Internal(err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewImageContent(out, "image/png")},
	}, nil
}

/*
Grayscale decodes a base64 PNG, JPEG, GIF, BMP or WebP image and returns it as
a base64 grayscale PNG.
*/
func Grayscale(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("invalid base64 image data: %w", err)
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	gray := toGray(src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return "", fmt.Errorf("failed to encode %s as png: %w", format, err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

type opaquer interface {
	Opaque() bool
}

/*
toGray keeps the luminance of the straight RGB values and drops alpha, so a
transparent white pixel stays white instead of turning black.
*/
func toGray(src image.Image) *image.Gray {
	bounds := src.Bounds()
	gray := image.NewGray(bounds)

	if o, ok := src.(opaquer); ok && o.Opaque() {
		draw.Draw(gray, bounds, src, bounds.Min, draw.Src)
		return gray
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			gray.SetGray(x, y, color.Gray{Y: luma(c)})
		}
	}

	return gray
}

// luma uses the same weights as color.GrayModel, on 8-bit channels.
func luma(c color.NRGBA) uint8 {
	y := (19595*uint32(c.R) + 38470*uint32(c.G) + 7471*uint32(c.B) + 1<<15) >> 16
	return uint8(y)
}
