package domain

// FileType represents the allowed receipt image types for upload.
type FileType string

const (
	FileTypeJPG  FileType = "jpg"
	FileTypePNG  FileType = "png"
	FileTypeWEBP FileType = "webp"
	FileTypeGIF  FileType = "gif"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypeJPG:  "image/jpeg",
	FileTypePNG:  "image/png",
	FileTypeWEBP: "image/webp",
	FileTypeGIF:  "image/gif",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"image/jpeg": FileTypeJPG,
	"image/png":  FileTypePNG,
	"image/webp": FileTypeWEBP,
	"image/gif":  FileTypeGIF,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"webp": FileTypeWEBP,
	"gif":  FileTypeGIF,
}

// Confidence is the reported trust level of an extraction result.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceError  Confidence = "error"
)

// PaymentType classifies the payment method printed on a receipt.
type PaymentType string

const (
	PaymentCredit PaymentType = "credit"
	PaymentDebit  PaymentType = "debit"
	PaymentPix    PaymentType = "pix"
	PaymentCash   PaymentType = "cash"
	PaymentOther  PaymentType = "other"
)

// ParsePaymentType maps a free-form type string onto a PaymentType, defaulting to other.
func ParsePaymentType(s string) PaymentType {
	switch PaymentType(s) {
	case PaymentCredit, PaymentDebit, PaymentPix, PaymentCash:
		return PaymentType(s)
	default:
		return PaymentOther
	}
}

// Category is one of the fixed expense categories a receipt can be filed under.
type Category string

const (
	CategoryHousing     Category = "housing"
	CategoryUtilities   Category = "utilities"
	CategoryGroceries   Category = "groceries"
	CategoryRestaurants Category = "restaurants"
	CategoryTransport   Category = "transport"
	CategoryHealth      Category = "health"
	CategoryEducation   Category = "education"
	CategoryLeisure     Category = "leisure"
	CategoryShopping    Category = "shopping"
	CategoryServices    Category = "services"
	CategoryOther       Category = "other"
)

// Provenance tags reported in ExtractionResult.Method.
const (
	MethodParser = "parser"
	MethodNone   = "none"
)
