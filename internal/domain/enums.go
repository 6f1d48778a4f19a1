package domain

// ImageFormat represents the image formats accepted for price table parsing.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatJPEG ImageFormat = "jpeg"
	ImageFormatGIF  ImageFormat = "gif"
	ImageFormatWebP ImageFormat = "webp"
)

// AllowedImageContentTypes maps MIME content types to ImageFormat.
var AllowedImageContentTypes = map[string]ImageFormat{
	"image/png":  ImageFormatPNG,
	"image/jpeg": ImageFormatJPEG,
	"image/jpg":  ImageFormatJPEG,
	"image/gif":  ImageFormatGIF,
	"image/webp": ImageFormatWebP,
}

// MaxImageSize is the largest accepted image upload in bytes.
const MaxImageSize = 10 * 1024 * 1024

// MaxImagesPerTask is the largest number of images accepted in one parse task.
const MaxImagesPerTask = 10

// UserRole defines the role of the operator calling the API.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleOperator UserRole = "operator"
)

// TaskStatus represents the lifecycle of a parse task.
type TaskStatus string

const (
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// ParseStatus represents the outcome of parsing a single image.
type ParseStatus string

const (
	ParseStatusSuccess ParseStatus = "success"
	ParseStatusFailed  ParseStatus = "failed"
)

// StorageCategory groups uploaded objects by purpose.
const StorageCategoryPriceImages = "price-images"
