package ident

import "strings"

// Format identifies the image format a device delivers scan data in. The
// canonical names are MIME types, since that is how both eSCL and WSD
// devices advertise them.
type Format int

const (
	// FormatUnknown is the sentinel for names that resolve to no format.
	FormatUnknown Format = iota - 1

	// FormatJPEG is image/jpeg.
	FormatJPEG
	// FormatTIFF is image/tiff.
	FormatTIFF
	// FormatPNG is image/png.
	FormatPNG
	// FormatPDF is application/pdf.
	FormatPDF
	// FormatBMP is application/bmp.
	FormatBMP
)

var formatNames = table[Format]{
	{FormatJPEG, "image/jpeg"},
	{FormatTIFF, "image/tiff"},
	{FormatPNG, "image/png"},
	{FormatPDF, "application/pdf"},
	{FormatBMP, "application/bmp"},
}

// MIMEName returns the format's MIME type, or "" for unknown values.
func (f Format) MIMEName() string { return formatNames.nameByID(f) }

// ShortName returns the subtype part of the MIME name: "jpeg" for
// "image/jpeg". A name without a "/" is its own short name; unknown
// formats have none.
func (f Format) ShortName() string {
	mime := formatNames.nameByID(f)
	if _, short, ok := strings.Cut(mime, "/"); ok {
		return short
	}
	return mime
}

// String returns the short name. Logs and API payloads want "jpeg", not
// "image/jpeg"; callers that need the full type use MIMEName.
func (f Format) String() string { return f.ShortName() }

// ParseFormat resolves a MIME name, accepting any casing. Unknown names
// yield FormatUnknown.
func ParseFormat(s string) Format { return formatNames.idByName(s, strings.EqualFold) }

// Formats lists the known formats in table order.
func Formats() []Format { return formatNames.ids() }
