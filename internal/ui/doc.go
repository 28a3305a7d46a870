// Package ui is the Bubble Tea front end for the user form.
//
// Core pieces:
//   - View: a screen region with its own Init/Update/View (Elm-style)
//   - FormView: the three text inputs and the Load/Save/Clear actions
//   - FocusManager: the tab order across inputs and actions
//   - KeybindRegistry: global shortcuts with help descriptions
//   - AppModel: wires the form to the preferences store and owns the toast
package ui
