package form

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SetChecked sets or clears the checked state of the element with id.
func (f *Form) SetChecked(id string, checked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("%w: #%s", ErrNoElement, id)
	}
	setChecked(n, checked)
	return nil
}

// Toggle flips the checked state of id and returns the new state.
func (f *Form) Toggle(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok {
		return false, fmt.Errorf("%w: #%s", ErrNoElement, id)
	}
	setChecked(n, !isChecked(n))
	return isChecked(n), nil
}

// CheckCategory copies the checked state of masterID onto every checkbox of
// class category. It returns how many checkboxes were updated.
func (f *Form) CheckCategory(masterID, category string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	master, ok := f.byID[masterID]
	if !ok {
		return 0, fmt.Errorf("%w: #%s", ErrNoElement, masterID)
	}
	state := isChecked(master)
	count := 0
	walk(f.doc, func(n *html.Node) {
		if n != master && hasClass(n, category) {
			setChecked(n, state)
			count++
		}
	})
	return count, nil
}

// SetValue writes v into the control with id: an input's value attribute or
// the matching option of a select. It mirrors a slider's output field.
func (f *Form) SetValue(id, v string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("%w: #%s", ErrNoElement, id)
	}
	if n.DataAtom != atom.Select {
		setAttr(n, "value", v)
		return nil
	}
	var match *html.Node
	walk(n, func(o *html.Node) {
		if o.DataAtom == atom.Option && match == nil && optionValue(o) == v {
			match = o
		}
	})
	if match == nil {
		return fmt.Errorf("#%s has no option %q", id, v)
	}
	walk(n, func(o *html.Node) {
		if o.DataAtom == atom.Option {
			removeAttr(o, "selected")
		}
	})
	setAttr(match, "selected", "")
	return nil
}

// ShowClass opens every element of class: it gains "show" and
// aria-expanded="true". It returns how many elements changed.
func (f *Form) ShowClass(class string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	walk(f.doc, func(n *html.Node) {
		if hasClass(n, class) {
			addClass(n, showClass)
			setAttr(n, "aria-expanded", "true")
			count++
		}
	})
	return count
}

// HideClass closes every open element of class.
func (f *Form) HideClass(class string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	walk(f.doc, func(n *html.Node) {
		if hasClass(n, class) && hasClass(n, showClass) {
			setAttr(n, "aria-expanded", "false")
			removeClass(n, showClass)
			count++
		}
	})
	return count
}

// ToggleClass flips "show" on the element with id, like a note popup.
func (f *Form) ToggleClass(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok {
		return false, fmt.Errorf("%w: #%s", ErrNoElement, id)
	}
	if hasClass(n, showClass) {
		removeClass(n, showClass)
		return false, nil
	}
	addClass(n, showClass)
	return true, nil
}

func setChecked(n *html.Node, checked bool) {
	if checked {
		setAttr(n, "checked", "")
		return
	}
	removeAttr(n, "checked")
}

func addClass(n *html.Node, class string) {
	classes := strings.Fields(attr(n, "class"))
	if slices.Contains(classes, class) {
		return
	}
	setAttr(n, "class", strings.Join(append(classes, class), " "))
}

func removeClass(n *html.Node, class string) {
	classes := slices.DeleteFunc(strings.Fields(attr(n, "class")), func(c string) bool { return c == class })
	setAttr(n, "class", strings.Join(classes, " "))
}

func optionValue(o *html.Node) string {
	if v, ok := lookupAttr(o, "value"); ok {
		return v
	}
	return strings.TrimSpace(textOf(o))
}
