package whitelist

// Compiles reports how many times the pattern set was compiled.
func (w *Whitelist) Compiles() int { return w.compiles }
