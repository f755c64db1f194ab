// Package main provides the entry point for the Curve Editor application.
package main

import (
	"log"

	"curve-editor/internal/app"
	"curve-editor/internal/version"
	"curve-editor/ui/mainwindow"
	"curve-editor/ui/prefs"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "io.github.curve-editor"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Curve Editor %s", version.String())

	appPrefs, err := prefs.LoadFrom(prefs.DefaultPath())
	if err != nil {
		log.Printf("Ignoring preferences: %v", err)
	}
	cfg := app.LoadConfig(appPrefs)
	log.Printf("Config: bias=%g sensitivity=%g segment=%g peeling=%v",
		cfg.Bias, cfg.Sensitivity, cfg.SegmentLength, cfg.Peeling)

	appState := app.NewState(cfg)

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.CurveEditorTheme{})

	win := mainwindow.New(a, appState, appPrefs)
	win.Resize(fyne.NewSize(1024, 768))
	win.SetOnClosed(func() {
		win.SavePreferences()
		log.Printf("Preferences saved to %s", appPrefs.Path())
	})
	win.ShowAndRun()
}
