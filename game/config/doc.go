// Package config provides configuration management for Photoly Studio.
//
// The config package handles:
//   - Loading studio presets from JSON files in the configs directory
//   - Preset caching, listing and saving
//   - Server settings from an optional YAML file
//
// Presets:
//
// Each preset (see package studio) describes one sliding puzzle and one
// gallery cube. Bundled presets:
//   - classic: 4x4 board, 150 shuffle moves, five studio photos
//   - easy: 3x3 board with a shallow shuffle and a looser cube snap
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	preset, err := manager.LoadConfig("easy")
//	defaultPreset := manager.GetDefault()
//	infos, err := manager.ListConfigs()
//
// Settings:
//
//	settings, err := config.LoadSettings("photoly.yaml")
//	addr := settings.Addr()
package config
