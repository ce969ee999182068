package browser

import (
	"context"
	"fmt"
)

// FakePage is an in-memory Page for adapter tests: selectors map to canned
// results, and navigation can be forced to fail.
type FakePage struct {
	NavigatedURL string
	NavigateErr  error

	TextBySelector  map[string]string
	TextsBySelector map[string][]string
	AttrsBySelector map[string][]string // keyed "selector|attr"
	Document        string

	Closed bool
}

func (p *FakePage) Navigate(_ context.Context, url string) error {
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.NavigatedURL = url
	return nil
}

func (p *FakePage) Text(_ context.Context, selector string) (string, error) {
	return p.TextBySelector[selector], nil
}

func (p *FakePage) Texts(_ context.Context, selector string) ([]string, error) {
	return p.TextsBySelector[selector], nil
}

func (p *FakePage) Attrs(_ context.Context, selector, attr string) ([]string, error) {
	return p.AttrsBySelector[fmt.Sprintf("%s|%s", selector, attr)], nil
}

func (p *FakePage) HTML(_ context.Context) (string, error) {
	return p.Document, nil
}

func (p *FakePage) Close() error {
	p.Closed = true
	return nil
}
