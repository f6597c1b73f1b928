/*
Package config provides typed extraction from loosely typed configuration maps.

Junction settings arrive from several places: YAML or JSON files, viper (which
lower-cases keys and may hand back strings from the environment), and stream
annotation elements, which are always strings. Config smooths those
differences over so callers ask for the type they want:

	cfg, err := config.FromFile("junction.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	app := cfg.Sub("app")
	async := app.Bool("async", false)          // true, "true" and "TRUE" all work
	size := app.Int("buffer_size", 1024)       // 4096 or "4096"
	for _, stream := range cfg.List("streams") {
	    fmt.Println(stream.String("id", ""))
	}

Every accessor returns its default when the key is missing or the value
cannot be converted. Config is safe for concurrent reads.
*/
package config
