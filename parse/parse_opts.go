package parse

type parseOpts struct {
	filename     string
	reserveNodes int
	reserveArena int
}

type Option func(*parseOpts)

// Filename names the source in error messages.
func Filename(name string) Option {
	return func(o *parseOpts) { o.filename = name }
}

// ReserveNodes preallocates node-store capacity before parsing.
func ReserveNodes(n int) Option {
	return func(o *parseOpts) { o.reserveNodes = n }
}

// ReserveArena preallocates arena capacity before parsing.
func ReserveArena(n int) Option {
	return func(o *parseOpts) { o.reserveArena = n }
}
