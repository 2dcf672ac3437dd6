package types

type RevalidateMode string

const (
	RevalidatePage   RevalidateMode = "page"
	RevalidateLayout RevalidateMode = "layout"
)

// OutputCache is the rendering framework's cache hook. Both calls are
// fire-and-forget: no return value is consumed by the coordination layer.
type OutputCache interface {
	InvalidateByTag(tag string)
	InvalidateByPath(path string, mode RevalidateMode)
}
