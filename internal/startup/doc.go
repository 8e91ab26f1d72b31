// Package startup handles configuration loading and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] layers, lowest precedence first:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (--config, or memewall.toml in the working directory)
//  3. environment variables
//  4. command line flags, applied through the override callback
//
// Recognised environment variables:
//
//   - MEMEWALL_SHEET_ID, MEMEWALL_SHEET_TAB_ID: form response spreadsheet
//   - MEMEWALL_MEME_TYPES_DOC, MEMEWALL_TEMPLATE_TYPES_DOC: glossary documents
//   - MEMEWALL_MEDIA_DIR, MEMEWALL_MEDIA_URL_PREFIX: downloaded media
//   - MEMEWALL_IMAGE_RENDERER: auto, vips or imaging
//   - MEMEWALL_IMAGE_FORMATS, MEMEWALL_IMAGE_WIDTHS: comma separated lists
//   - MEMEWALL_IMAGE_QUALITY, MEMEWALL_IMAGE_DIR, MEMEWALL_LEGACY_THUMBNAIL
//   - MEMEWALL_OUTPUT_DIR, MEMEWALL_METRICS_TEXTFILE: build artifacts
//   - MEMEWALL_PORT, MEMEWALL_METRICS_ENABLED: preview server
//   - MEMEWALL_HTTP_TIMEOUT_SECONDS: outbound request timeout
//   - LOG_LEVEL or MEMEWALL_LOG_LEVEL: debug, info, warn, error
//   - NO_COLOR: disable coloured log output
//
// A sample file:
//
//	[sheet]
//	id = "1AbC..."
//	tab_id = "0"
//
//	[glossary]
//	meme_types_doc = "1XyZ..."
//
//	[images]
//	formats = ["webp", "jpeg"]
//	widths = [320, 640, 1280]
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
