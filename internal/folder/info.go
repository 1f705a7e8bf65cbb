package folder

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Info is the content of project_info.txt
type Info struct {
	Name    string `yaml:"name"`
	Created string `yaml:"created"`
	Index   int    `yaml:"index"`
	Title   string `yaml:"title"`
}

func writeInfo(path string, info Info) error {
	data, err := yaml.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadInfo loads the metadata file of a project folder
func ReadInfo(folder string) (*Info, error) {
	data, err := os.ReadFile(filepath.Join(folder, InfoFile))
	if err != nil {
		return nil, err
	}
	var info Info
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
