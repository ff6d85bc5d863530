package main

import (
	"context"
	"embed"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/satsarcade/sats-arcade/bindings"

	"github.com/satsarcade/sats-arcade-desktop/internal/txlog"
)

//go:embed all:frontend/dist
var assets embed.FS

const (
	docsURL = "https://docs.unisat.io"
	repoURL = "https://github.com/satsarcade/sats-arcade"
)

var (
	appCtx   context.Context
	appCtxMu sync.RWMutex
)

// buildWindowsOptions configures Windows-specific application settings
func buildWindowsOptions() *windows.Options {
	return &windows.Options{
		// Modern Windows 11 Mica backdrop effect
		BackdropType: windows.Mica,

		// Theme Settings
		Theme: windows.SystemDefault,

		// Custom theme colors for light/dark mode
		CustomTheme: &windows.ThemeSettings{
			// Dark mode (matches app background)
			DarkModeTitleBar:  windows.RGB(27, 38, 54),
			DarkModeTitleText: windows.RGB(226, 232, 240),
			DarkModeBorder:    windows.RGB(51, 65, 85),

			// Light mode
			LightModeTitleBar:  windows.RGB(248, 250, 252),
			LightModeTitleText: windows.RGB(15, 23, 42),
			LightModeBorder:    windows.RGB(226, 232, 240),
		},

		// WebView Configuration
		WebviewIsTransparent: false,
		WindowIsTranslucent:  false,

		// DPI and Zoom
		DisablePinchZoom:     false,
		IsZoomControlEnabled: false,
		ZoomFactor:           1.0,

		// Window Decorations
		DisableWindowIcon:                 false,
		DisableFramelessWindowDecorations: false,

		// Window Class Name
		WindowClassName: "SatsArcadeWindow",

		// Power Management Callbacks
		OnSuspend: func() {
			log.Println("Windows entering low power mode")
		},
		OnResume: func() {
			log.Println("Windows resuming from low power mode")
		},
	}
}

// buildMacOptions configures macOS-specific application settings
func buildMacOptions() *mac.Options {
	// Load icon for About dialog
	iconData, err := assets.ReadFile("frontend/dist/assets/logo.png")
	var aboutIcon []byte
	if err == nil {
		aboutIcon = iconData
	}

	return &mac.Options{
		// Title Bar Configuration
		TitleBar: &mac.TitleBar{
			TitlebarAppearsTransparent: false,
			HideTitle:                  false,
			HideTitleBar:               false,
			FullSizeContent:            false,
			UseToolbar:                 false,
			HideToolbarSeparator:       true,
		},

		// Appearance - Follow system theme
		WebviewIsTransparent: false,
		WindowIsTranslucent:  false,

		// About Dialog
		About: &mac.AboutInfo{
			Title: "Sats Arcade",
			Message: "A space shooter that connects to your Bitcoin wallet.\n\n" +
				"Built with Wails\n\n" +
				"Keys never leave the wallet: every signature and send is approved there.",
			Icon: aboutIcon,
		},
	}
}

// buildLinuxOptions configures Linux-specific application settings
func buildLinuxOptions() *linux.Options {
	// Load icon for window manager
	iconData, err := assets.ReadFile("frontend/dist/assets/logo.png")
	var windowIcon []byte
	if err == nil {
		windowIcon = iconData
	}

	return &linux.Options{
		// Window Icon
		Icon: windowIcon,

		// WebView Configuration
		WindowIsTranslucent: false,
		WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,

		// Program Name for window managers
		ProgramName: "sats-arcade",
	}
}

func main() {
	log.Printf("Starting Sats Arcade (Go %s)...", runtime.Version())

	cfg, err := bindings.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("create data dir %s: %v", cfg.DataDir, err)
	}

	transfers, err := txlog.NewTransferModule(cfg.TransfersDBPath())
	if err != nil {
		log.Fatalf("transfer module init failed: %v", err)
	}
	walletMod, err := bindings.NewWalletModule(cfg, transfers)
	if err != nil {
		log.Fatalf("wallet module init failed: %v", err)
	}
	arcadeMod := bindings.NewArcadeModule(walletMod)

	var stopAPI context.CancelFunc = func() {}

	startup := func(ctx context.Context) {
		setAppContext(ctx)
		transfers.Startup(ctx)
		arcadeMod.Startup(ctx)
		walletMod.Startup(ctx)

		apiCtx, cancel := context.WithCancel(ctx)
		stopAPI = cancel
		go func() {
			if err := bindings.ServeAPI(apiCtx, cfg, walletMod, arcadeMod); err != nil {
				log.Printf("local API stopped: %v", err)
			}
		}()
	}

	beforeClose := func(ctx context.Context) (prevent bool) {
		stopAPI()
		if err := walletMod.Shutdown(); err != nil {
			log.Printf("wallet module shutdown error: %v", err)
		}
		if err := transfers.Shutdown(); err != nil {
			log.Printf("transfer module shutdown error: %v", err)
		}
		setAppContext(nil)
		log.Println("Application is closing")
		return false
	}

	if err := wails.Run(&options.App{
		// Window Configuration
		Title:             "Sats Arcade",
		Width:             1280,
		Height:            800,
		MinWidth:          960,
		MinHeight:         640,
		WindowStartState:  options.Normal,
		Frameless:         false,
		DisableResize:     false,
		Fullscreen:        false,
		StartHidden:       false,
		HideWindowOnClose: false,
		AlwaysOnTop:       false,
		BackgroundColour:  &options.RGBA{R: 10, G: 10, B: 20, A: 255},

		// Asset Server
		AssetServer: &assetserver.Options{
			Assets: assets,
		},

		// Application Lifecycle
		OnStartup:     startup,
		OnBeforeClose: beforeClose,
		OnDomReady: func(ctx context.Context) {
			log.Println("DOM is ready")
		},
		OnShutdown: func(ctx context.Context) {
			log.Println("Application shutdown complete")
		},

		// Menu
		Menu: buildAppMenu(cfg.DataDir),

		// Bindings
		Bind: []interface{}{walletMod, arcadeMod, transfers},

		// Logging
		LogLevel:           logger.INFO,
		LogLevelProduction: logger.ERROR,

		// User Experience
		EnableDefaultContextMenu:         false,
		EnableFraudulentWebsiteDetection: false,

		// Error Handling
		ErrorFormatter: func(err error) any {
			if err == nil {
				return nil
			}
			return err.Error()
		},

		// Single Instance Lock - one session manager per data directory
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: "7f2c9a4e-3b1d-4e8f-a6c5-sats-arcade",
			OnSecondInstanceLaunch: func(data options.SecondInstanceData) {
				log.Printf("Second instance launch prevented. Args: %v", data.Args)
			},
		},

		DragAndDrop: &options.DragAndDrop{
			EnableFileDrop:     false,
			DisableWebViewDrop: true,
		},

		// Platform-Specific Options
		Windows: buildWindowsOptions(),
		Mac:     buildMacOptions(),
		Linux:   buildLinuxOptions(),
	}); err != nil {
		log.Printf("Error running Wails app: %v", err)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	log.Println("Application exited normally")
}

func buildAppMenu(dataDir string) *menu.Menu {
	rootMenu := menu.NewMenu()

	if runtime.GOOS == "darwin" {
		if appMenu := menu.AppMenu(); appMenu != nil {
			rootMenu.Append(appMenu)
		}
	}

	fileMenu := menu.NewMenu()
	fileMenu.AddText("Open Data Directory", keys.CmdOrCtrl("o"), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			openPathInExplorer(ctx, dataDir)
		})
	})
	fileMenu.AddSeparator()
	fileMenu.AddText("Quit", keys.CmdOrCtrl("q"), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.Quit(ctx)
		})
	})
	rootMenu.Append(menu.SubMenu("File", fileMenu))

	viewMenu := menu.NewMenu()
	viewMenu.AddText("Reload Frontend", keys.CmdOrCtrl("r"), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.WindowReloadApp(ctx)
		})
	})
	viewMenu.AddText("Toggle Fullscreen", keys.Combo("f", keys.CmdOrCtrlKey, keys.ShiftKey), func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			toggleFullscreen(ctx)
		})
	})
	rootMenu.Append(menu.SubMenu("View", viewMenu))

	helpMenu := menu.NewMenu()
	helpMenu.AddText("Documentation", nil, func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.BrowserOpenURL(ctx, docsURL)
		})
	})
	helpMenu.AddText("Project Repository", nil, func(_ *menu.CallbackData) {
		withAppContext(func(ctx context.Context) {
			wruntime.BrowserOpenURL(ctx, repoURL)
		})
	})
	rootMenu.Append(menu.SubMenu("Help", helpMenu))

	return rootMenu
}

func openPathInExplorer(ctx context.Context, path string) {
	if path == "" {
		return
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		log.Printf("resolve path %s failed: %v", path, err)
		abs = path
	}

	wruntime.BrowserOpenURL(ctx, fileURI(abs))
}

func fileURI(path string) string {
	clean := filepath.ToSlash(path)
	if runtime.GOOS == "windows" && len(clean) > 0 && clean[0] != '/' {
		clean = "/" + clean
	}

	u := url.URL{Scheme: "file", Path: clean}
	return u.String()
}

func toggleFullscreen(ctx context.Context) {
	if wruntime.WindowIsFullscreen(ctx) {
		wruntime.WindowUnfullscreen(ctx)
		return
	}
	wruntime.WindowFullscreen(ctx)
}

func setAppContext(ctx context.Context) {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()
	appCtx = ctx
}

func withAppContext(action func(context.Context)) {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()
	if ctx == nil {
		log.Println("application context not initialised; ignoring menu action")
		return
	}
	action(ctx)
}
