package manifest

// Store moves a whole document between memory and wherever it is kept.
// Save always replaces the stored document.
type Store interface {
	Load() (*Document, error)
	Save(doc *Document) error
}

// Session loads a document, runs fn against an engine over it, and saves the
// result. Nothing is saved if fn fails.
func Session(store Store, fn func(e *Engine) error, options ...EngineOption) error {
	doc, err := store.Load()
	if err != nil {
		return err
	}
	engine := NewEngine(doc, options...)
	if err := fn(engine); err != nil {
		return err
	}
	return store.Save(doc)
}
