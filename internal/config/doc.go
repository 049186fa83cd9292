// Package config provides simple, local-first configuration management
// for redpen. All configuration is stored in a .redpen/ directory under
// the chosen root (typically the user's home or the demo's working
// directory).
//
// Configuration File Structure:
//
//	.redpen/
//	└── config.json        # Main configuration
//
// The config.json file contains simple key-value settings:
//
//	{
//	  "analyzer_url": "",
//	  "scope": "local",
//	  "interval_ms": 100,
//	  "cache_capacity": 500,
//	  "cache_ttl_seconds": 10,
//	  "max_text_len": 120000,
//	  "hotkey": "ctrl+k"
//	}
//
// An empty analyzer_url selects the built-in demo analyzer; a non-empty
// URL points at an HTTP analysis service.
//
// Environment Variable Support:
//
// String values can reference environment variables using $VAR or
// ${VAR} syntax:
//
//	{
//	  "analyzer_url": "${REDPEN_ANALYZER_URL}"
//	}
//
// Example usage:
//
//	manager := config.NewManager(home)
//	if err := manager.Load(); err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := manager.Get()
//	fmt.Println("analyzer:", cfg.AnalyzerURL)
//
//	// Update a setting
//	manager.Set("hotkey", "ctrl+shift+k")
package config
