package headed

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
)

// BrowserManager manages browser instances and pools
type BrowserManager struct {
	config       *config.Config
	launcher     *launcher.Launcher
	browsers     []*rod.Browser
	mu           sync.RWMutex
	maxInstances int
	logger       types.Logger
}

// BrowserInstance is one fetch's view of a pooled browser. Each instance
// gets its own incognito browsing context so cookies and storage never leak
// between concurrent fetches sharing the underlying browser.
type BrowserInstance struct {
	Browser   *rod.Browser
	Page      *rod.Page
	incognito *rod.Browser
	manager   *BrowserManager
	createdAt time.Time
}

// NewBrowserManager creates a new browser manager
func NewBrowserManager(cfg *config.Config) *BrowserManager {
	logger := logging.GetGlobalLogger()

	// Setup launcher with stealth mode and critical Docker flags
	l := launcher.New().
		Headless(cfg.Scraper.HeadlessMode).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-web-security").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		// Critical flags to fix Docker navigation errors
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	// Use system-installed Chrome/Chromium instead of downloading
	if chromePath := getSystemChromePath(); chromePath != "" {
		l = l.Bin(chromePath)
		logger.Info("Using system Chrome browser", map[string]interface{}{
			"chrome_path": chromePath,
		})
	} else {
		logger.Warn("System Chrome not found, Rod will download browser", map[string]interface{}{})
	}

	if cfg.Scraper.UserAgent != "" {
		l = l.Set("user-agent", cfg.Scraper.UserAgent)
	}

	return &BrowserManager{
		config:       cfg,
		launcher:     l,
		browsers:     make([]*rod.Browser, 0),
		maxInstances: cfg.BrowserPool.MaxInstances,
		logger:       logger,
	}
}

// GetBrowser returns an available browser instance with a fresh page
func (bm *BrowserManager) GetBrowser(ctx context.Context) (*BrowserInstance, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for _, browser := range bm.browsers {
		if bm.isBrowserHealthy(browser) {
			instance, err := bm.newInstance(browser)
			if err != nil {
				bm.logger.Warn("Failed to create page from existing browser", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			return instance, nil
		}
	}

	if len(bm.browsers) < bm.maxInstances {
		browser, err := bm.createBrowser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create browser: %w", err)
		}

		instance, err := bm.newInstance(browser)
		if err != nil {
			browser.MustClose()
			return nil, err
		}

		bm.browsers = append(bm.browsers, browser)
		return instance, nil
	}

	return nil, fmt.Errorf("browser pool exhausted, max instances: %d", bm.maxInstances)
}

// newInstance opens an isolated incognito context on the shared browser and
// prepares a stealth page inside it.
func (bm *BrowserManager) newInstance(browser *rod.Browser) (*BrowserInstance, error) {
	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create incognito context: %w", err)
	}

	page, err := bm.createStealthPage(incognito)
	if err != nil {
		_ = rod.Try(func() {
			_ = proto.TargetDisposeBrowserContext{BrowserContextID: incognito.BrowserContextID}.Call(incognito)
		})
		return nil, fmt.Errorf("failed to create stealth page: %w", err)
	}

	return &BrowserInstance{
		Browser:   browser,
		Page:      page,
		incognito: incognito,
		manager:   bm,
		createdAt: time.Now(),
	}, nil
}

// createBrowser creates a new browser instance
func (bm *BrowserManager) createBrowser(ctx context.Context) (*rod.Browser, error) {
	url, err := bm.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	bm.logger.Info("New browser instance created", map[string]interface{}{})
	return browser, nil
}

// createStealthPage creates a new page with stealth mode enabled
func (bm *BrowserManager) createStealthPage(browser *rod.Browser) (*rod.Page, error) {
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("failed to create stealth page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		bm.logger.Warn("Failed to set viewport", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if bm.config.Scraper.UserAgent != "" {
		err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: bm.config.Scraper.UserAgent,
		})
		if err != nil {
			bm.logger.Warn("Failed to set user agent", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Headers that match a regular desktop browsing session
	headers := map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Accept-Encoding":           "gzip, deflate, br",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Upgrade-Insecure-Requests": "1",
	}

	for name, value := range headers {
		if _, err := page.SetExtraHeaders([]string{name, value}); err != nil {
			bm.logger.Debug("Failed to set header", map[string]interface{}{
				"error":  err.Error(),
				"header": name,
			})
		}
	}

	// Mask the remaining automation fingerprints stealth leaves behind
	err = rod.Try(func() {
		page.MustEval(`() => {
			Object.defineProperty(navigator, 'webdriver', {
				get: () => undefined,
			});
			Object.defineProperty(navigator, 'plugins', {
				get: () => [1, 2, 3, 4, 5],
			});
			Object.defineProperty(navigator, 'languages', {
				get: () => ['en-US', 'en'],
			});
			window.chrome = {
				runtime: {},
			};
		}`)
	})
	if err != nil {
		bm.logger.Warn("Failed to inject stealth JavaScript", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return page, nil
}

// Release closes the instance's page and disposes its incognito context,
// handing the underlying browser back to the pool.
func (bi *BrowserInstance) Release() {
	if bi.Page != nil {
		_ = rod.Try(func() {
			bi.Page.MustClose()
		})
	}
	if bi.incognito != nil {
		_ = rod.Try(func() {
			_ = proto.TargetDisposeBrowserContext{BrowserContextID: bi.incognito.BrowserContextID}.Call(bi.incognito)
		})
	}
	bi.manager.logger.Debug("Browser instance released")
}

// Navigate navigates the page to the specified URL with timeout
func (bi *BrowserInstance) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := rod.Try(func() {
		bi.Page.Context(navCtx).MustNavigate(url).MustWaitLoad()
	})
	if err != nil {
		if navCtx.Err() != nil {
			return navCtx.Err()
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	bi.manager.logger.Debug("Successfully navigated to URL", map[string]interface{}{
		"url": url,
	})
	return nil
}

// DismissConsentDialog clicks through cookie/consent overlays when present.
// Best effort: a page without a dialog is not an error.
func (bi *BrowserInstance) DismissConsentDialog() {
	_ = rod.Try(func() {
		bi.Page.MustEval(`() => {
			const selectors = [
				'#didomi-notice-agree-button',
				'button[id*="accept"]',
				'button[class*="accept"]',
				'button[aria-label*="ccept"]',
				'[data-testid*="accept"]',
			];
			for (const selector of selectors) {
				const button = document.querySelector(selector);
				if (button) {
					button.click();
					return;
				}
			}
		}`)
	})
}

// GetPageHTML returns the full HTML content of the current page
func (bi *BrowserInstance) GetPageHTML() (string, error) {
	html, err := bi.Page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return html, nil
}

// isBrowserHealthy checks if a browser instance is still healthy
func (bm *BrowserManager) isBrowserHealthy(browser *rod.Browser) bool {
	err := rod.Try(func() {
		browser.MustPages()
	})
	return err == nil
}

// Cleanup closes all browser instances and launchers
func (bm *BrowserManager) Cleanup() {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	for _, browser := range bm.browsers {
		if bm.isBrowserHealthy(browser) {
			browser.MustClose()
		}
	}

	bm.browsers = nil
	bm.launcher.Cleanup()
	bm.logger.Info("Browser manager cleanup completed")
}

// IsHealthy checks if the browser manager is healthy
func (bm *BrowserManager) IsHealthy() bool {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	for _, browser := range bm.browsers {
		if !bm.isBrowserHealthy(browser) {
			return false
		}
	}
	return true
}

// getSystemChromePath finds the system-installed Chrome/Chromium browser
func getSystemChromePath() string {
	// First check environment variables (Docker container configuration)
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		if _, err := os.Stat(chromeBin); err == nil {
			return chromeBin
		}
	}

	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	commonPaths := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"C:\\Program Files\\Google\\Chrome\\Application\\chrome.exe",
		"C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe",
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
