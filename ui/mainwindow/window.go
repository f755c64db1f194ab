// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"log"

	"curve-editor/internal/app"
	"curve-editor/internal/edit"
	"curve-editor/internal/render"
	"curve-editor/internal/version"
	"curve-editor/ui/canvas"
	"curve-editor/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	appTitle       = "Curve Editor"
	snapshotWidth  = 1024
	snapshotHeight = 768
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	prefs  *prefs.Prefs
	canvas *canvas.ChainCanvas

	modeGroup    *widget.RadioGroup
	peelingCheck *widget.Check
	statusBar    *widget.Label
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(appTitle + " " + version.String())

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewChainCanvas(mw.state)
	mw.canvas.OnError(mw.onGestureError)

	mw.statusBar = widget.NewLabel("Draw a stroke")

	mw.modeGroup = widget.NewRadioGroup([]string{app.ModeSketch.String(), app.ModeEdit.String()}, mw.onModeSelected)
	mw.modeGroup.Horizontal = true
	mw.modeGroup.Required = true
	mw.modeGroup.SetSelected(mw.state.Mode().String())

	mw.peelingCheck = widget.NewCheck("Use peeling", mw.onPeelingToggled)
	mw.peelingCheck.SetChecked(mw.state.Config().Peeling)

	clearBtn := widget.NewButton("Clear", mw.state.Clear)

	toolbar := container.NewHBox(
		widget.NewLabel("Mode:"),
		mw.modeGroup,
		widget.NewSeparator(),
		mw.peelingCheck,
		widget.NewSeparator(),
		clearBtn,
	)

	content := container.NewBorder(
		toolbar,                           // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.canvas,                         // center
	)

	mw.SetContent(content)
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Save Snapshot...", mw.onSaveSnapshot),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Clear", mw.state.Clear),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, helpMenu))
}

func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventModeChanged, func(data interface{}) {
		if m, ok := data.(app.Mode); ok {
			mw.modeGroup.SetSelected(m.String())
			if m == app.ModeSketch {
				mw.updateStatus("Draw a stroke")
			} else {
				mw.updateStatus("Select points, then drag one of them")
			}
		}
	})

	mw.state.On(app.EventSketchFinished, func(data interface{}) {
		if n, ok := data.(int); ok {
			mw.updateStatus(fmt.Sprintf("Stroke with %d points", n))
		}
	})

	mw.state.On(app.EventSelectionChanged, func(data interface{}) {
		if sel, ok := data.([]int); ok && len(sel) > 0 {
			mw.updateStatus(fmt.Sprintf("%d selected", len(sel)))
		}
	})

	mw.state.On(app.EventPolicyChanged, func(data interface{}) {
		if p, ok := data.(edit.Policy); ok {
			mw.peelingCheck.SetChecked(p == edit.Peeling)
			mw.updateStatus("Drag policy: " + p.String())
		}
	})
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) onModeSelected(choice string) {
	m := app.ModeSketch
	if choice == app.ModeEdit.String() {
		m = app.ModeEdit
	}
	if err := mw.state.SetMode(m); err != nil {
		if errors.Is(err, app.ErrNoChain) {
			mw.updateStatus("Draw a stroke before editing")
		} else {
			dialog.ShowError(err, mw.Window)
		}
		mw.modeGroup.SetSelected(mw.state.Mode().String())
	}
}

func (mw *MainWindow) onPeelingToggled(on bool) {
	mw.state.SetPeeling(on)
	mw.SavePreferences()
}

func (mw *MainWindow) onGestureError(err error) {
	mw.updateStatus("Drag cancelled: " + err.Error())
}

func (mw *MainWindow) onSaveSnapshot() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()

		points, overlay := mw.state.Scene()
		img := render.NewRenderer(mw.state.Projection(), render.DefaultStyle()).
			Render(points, overlay, snapshotWidth, snapshotHeight)
		if err := render.WriteTIFF(writer, img); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Snapshot saved: " + writer.URI().Path())
	}, mw.Window)
	fd.SetFileName("chain.tiff")
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".tif", ".tiff"}))
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s %s\nBuilt %s (%s)", appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// SavePreferences writes the current settings to disk.
func (mw *MainWindow) SavePreferences() {
	mw.state.Config().Store(mw.prefs)
	if err := mw.prefs.Save(); err != nil {
		log.Printf("Failed to save preferences: %v", err)
	}
}
