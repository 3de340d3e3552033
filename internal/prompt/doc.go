// Package prompt asks the user questions on a terminal: how to resolve a
// conflicting file, which families to install, and what value each template
// variable should take. Menus are numbered and read one line at a time.
package prompt
