package config

// FileConfig задает путь к YAML-файлу с заметками.
type FileConfig struct {
	Path string `yaml:"path" env:"NOTES_FILE_PATH" env-default:"data/notes.yaml"`
}
