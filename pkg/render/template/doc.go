// Package template declares the engine contract the HTML renderers use for
// form chrome: the form shell, the field wrapper and the group fieldset.
// The control markup itself never goes through a template.
package template
