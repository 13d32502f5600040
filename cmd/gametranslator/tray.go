package main

import (
	_ "embed"

	"log/slog"

	"github.com/energye/systray"

	"github.com/Rangesa/Game-Translator/internal/syncx"
)

//go:embed icon.ico
var iconData []byte

// windowSlots caps the picker submenu length.
const windowSlots = 12

// tray is the UI context: a system tray menu owning start/stop and the
// target window choice. Anything slow runs off the tray callback
// goroutine so the menu stays responsive.
type tray struct {
	app *App

	slotTitles *syncx.RWGuard[[windowSlots]string]

	toggle *systray.MenuItem
	slots  [windowSlots]*systray.MenuItem
}

func newTray(app *App) *tray {
	return &tray{
		app:        app,
		slotTitles: syncx.NewGuard([windowSlots]string{}),
	}
}

func (t *tray) onReady() {
	systray.SetIcon(iconData)
	systray.SetTitle("Game Translator")
	systray.SetTooltip("Game Translator")

	t.toggle = systray.AddMenuItemCheckbox("Translate", "Start or stop translating", false)
	picker := systray.AddMenuItem("Select window", "Pick the window to translate")
	for i := range t.slots {
		t.slots[i] = picker.AddSubMenuItem("", "")
		t.slots[i].Hide()
		t.slots[i].Click(func() { t.pickSlot(i) })
	}
	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Exit the program")

	t.app.SetStateListener(func(running bool) {
		if running {
			t.toggle.Check()
		} else {
			t.toggle.Uncheck()
		}
	})

	t.toggle.Click(t.onToggle)
	quit.Click(systray.Quit)

	// The window list refreshes every time the menu opens.
	systray.SetOnRClick(func(menu systray.IMenu) {
		t.refreshWindows()
		menu.ShowMenu()
	})

	t.refreshWindows()
	slog.Info("tray ready")
}

func (t *tray) onExit() {
	slog.Info("tray closed")
}

func (t *tray) onToggle() {
	if t.app.Running() {
		t.toggle.Uncheck()
		go t.app.Stop()
		return
	}

	t.toggle.Check()
	go func() {
		if err := t.app.Start(); err != nil {
			slog.Error("start failed", "error", err)
			t.toggle.Uncheck()
		}
	}()
}

func (t *tray) pickSlot(i int) {
	title := t.slotTitles.Get()[i]
	if title == "" {
		return
	}
	go t.app.SelectWindow(title)
}

func (t *tray) refreshWindows() {
	wins, err := listWindows()
	if err != nil {
		slog.Warn("window list failed", "error", err)
		return
	}

	t.slotTitles.Write(func(titles *[windowSlots]string) {
		for i := range t.slots {
			if i < len(wins) {
				titles[i] = wins[i].Title
				t.slots[i].SetTitle(wins[i].Title)
				t.slots[i].Show()
			} else {
				titles[i] = ""
				t.slots[i].Hide()
			}
		}
	})
}
