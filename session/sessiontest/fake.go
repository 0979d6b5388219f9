// Package sessiontest provides a scriptable in-memory session for testing
// the navigation, classification and extraction step functions without a
// browser. Asynchronous portal behavior (dropdowns and dialogs that populate
// after an interaction) is modeled with mutation hooks and delayed setters.
package sessiontest

import (
	"sync"
	"time"

	"github.com/tnpds-watch/shopcrawl/session"
)

// FakeElement is a scripted DOM node.
type FakeElement struct {
	TextValue string
	Kids      map[string][]*FakeElement

	clicked func()
}

// Text returns the node's scripted text.
func (e *FakeElement) Text() (string, error) {
	return e.TextValue, nil
}

// Click records the click if a hook is attached.
func (e *FakeElement) Click() error {
	if e.clicked != nil {
		e.clicked()
	}
	return nil
}

// Find returns the first scripted child for selector.
func (e *FakeElement) Find(selector string) (session.Element, error) {
	kids := e.Kids[selector]
	if len(kids) == 0 {
		return nil, session.ErrElementNotFound{Selector: selector}
	}
	return kids[0], nil
}

// FindAll returns all scripted children for selector.
func (e *FakeElement) FindAll(selector string) ([]session.Element, error) {
	kids := e.Kids[selector]
	elements := make([]session.Element, 0, len(kids))
	for _, kid := range kids {
		elements = append(elements, kid)
	}
	return elements, nil
}

// Fake is an in-memory session.Session. Selectors are opaque keys: the fake
// serves whatever was scripted under the exact selector string the code
// under test uses.
type Fake struct {
	mu    sync.Mutex
	doc   map[string][]*FakeElement
	alive bool

	// Hooks fire after the corresponding primitive succeeds. They may
	// mutate the fake (e.g. populate a dependent dropdown).
	OnNavigate func(url string)
	OnSelect   func(selector, label string)
	OnClick    func(selector string)

	// Errs forces a primitive on the keyed selector (or URL) to fail.
	Errs map[string]error

	NavigateCalls []string
	SelectCalls   []string
	ClickCalls    []string

	ScreenshotData []byte
	HTML           string
}

// New returns an empty, alive fake session.
func New() *Fake {
	return &Fake{
		doc:            make(map[string][]*FakeElement),
		alive:          true,
		Errs:           make(map[string]error),
		ScreenshotData: []byte("png"),
		HTML:           "<html></html>",
	}
}

// Set scripts the elements served for a selector, replacing any previous
// script.
func (f *Fake) Set(selector string, elements ...*FakeElement) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc[selector] = elements
}

// SetText scripts a single text node under selector.
func (f *Fake) SetText(selector, text string) {
	f.Set(selector, &FakeElement{TextValue: text})
}

// SetAfter scripts elements that appear only after delay, imitating an
// asynchronous portal update.
func (f *Fake) SetAfter(selector string, delay time.Duration, elements ...*FakeElement) {
	time.AfterFunc(delay, func() {
		f.Set(selector, elements...)
	})
}

// SetOptions scripts a dropdown's option list. Options are served under
// "<selector> option" to match how callers enumerate them.
func (f *Fake) SetOptions(selector string, labels ...string) {
	elements := make([]*FakeElement, 0, len(labels))
	for _, label := range labels {
		elements = append(elements, &FakeElement{TextValue: label})
	}
	f.Set(selector, &FakeElement{})
	f.Set(selector+" option", elements...)
}

// SetOptionsAfter scripts a dropdown whose options populate after delay.
func (f *Fake) SetOptionsAfter(selector string, delay time.Duration, labels ...string) {
	f.Set(selector, &FakeElement{})
	time.AfterFunc(delay, func() {
		f.SetOptions(selector, labels...)
	})
}

// Remove deletes a selector's script.
func (f *Fake) Remove(selector string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.doc, selector)
	delete(f.doc, selector+" option")
}

// Kill marks the session dead, as after a browser crash.
func (f *Fake) Kill() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive = false
}

func (f *Fake) NavigateTo(url string) error {
	f.mu.Lock()
	if err := f.Errs[url]; err != nil {
		f.mu.Unlock()
		return err
	}
	f.NavigateCalls = append(f.NavigateCalls, url)
	hook := f.OnNavigate
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	return nil
}

func (f *Fake) Find(selector string) (session.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errs[selector]; err != nil {
		return nil, err
	}
	elements := f.doc[selector]
	if len(elements) == 0 {
		return nil, session.ErrElementNotFound{Selector: selector}
	}
	return elements[0], nil
}

func (f *Fake) FindAll(selector string) ([]session.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errs[selector]; err != nil {
		return nil, err
	}
	elements := make([]session.Element, 0, len(f.doc[selector]))
	for _, el := range f.doc[selector] {
		elements = append(elements, el)
	}
	return elements, nil
}

func (f *Fake) Click(selector string) error {
	f.mu.Lock()
	if err := f.Errs[selector]; err != nil {
		f.mu.Unlock()
		return err
	}
	if len(f.doc[selector]) == 0 {
		f.mu.Unlock()
		return session.ErrElementNotFound{Selector: selector}
	}
	f.ClickCalls = append(f.ClickCalls, selector)
	hook := f.OnClick
	f.mu.Unlock()

	if hook != nil {
		hook(selector)
	}
	return nil
}

func (f *Fake) ReadText(selector string) (string, error) {
	el, err := f.Find(selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (f *Fake) Select(selector, label string) error {
	f.mu.Lock()
	if err := f.Errs[selector]; err != nil {
		f.mu.Unlock()
		return err
	}
	found := false
	for _, opt := range f.doc[selector+" option"] {
		if opt.TextValue == label {
			found = true
			break
		}
	}
	if !found {
		f.mu.Unlock()
		return session.ErrElementNotFound{Selector: selector + " option"}
	}
	f.SelectCalls = append(f.SelectCalls, selector+"="+label)
	hook := f.OnSelect
	f.mu.Unlock()

	if hook != nil {
		hook(selector, label)
	}
	return nil
}

func (f *Fake) Screenshot() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ScreenshotData, nil
}

func (f *Fake) PageSource() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.HTML, nil
}

func (f *Fake) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *Fake) Close() error {
	f.Kill()
	return nil
}

// Row builds a table row element whose td children carry the given cell
// texts, in order.
func Row(cells ...string) *FakeElement {
	kids := make([]*FakeElement, 0, len(cells))
	for _, cell := range cells {
		kids = append(kids, &FakeElement{TextValue: cell})
	}
	return &FakeElement{Kids: map[string][]*FakeElement{"td": kids}}
}

// DetailRow builds a label/value pair element matching the detail page's
// row structure.
func DetailRow(label, value string) *FakeElement {
	return &FakeElement{Kids: map[string][]*FakeElement{
		"label": {{TextValue: label}},
		"span":  {{TextValue: value}},
	}}
}
