package process

// NewWithList returns a Finder over a fixed process listing.
func NewWithList(list func() ([]string, error)) *Finder {
	return &Finder{list: list}
}
