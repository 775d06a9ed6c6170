// CLI configuration

// The configuration is loaded from a YAML file, with the following structure:
//
//  numcpus_config:
//    output_format: text
//    show_signals: true
//    probe_config:
//      max_read_size: 64k
//    log_config:
//      ...
//
// Other sections are ignored, so the file may be shared with other tools. The
// library itself reads no configuration; the C API and the Go API use the
// defaults.

package numcpus_internal

import (
	"fmt"
	"io"
	"os"

	"github.com/bgp59/logrusx"
	"gopkg.in/yaml.v3"
)

const (
	NUMCPUS_CONFIG_SECTION_NAME = "numcpus_config"

	OUTPUT_FORMAT_TEXT = "text"
	OUTPUT_FORMAT_YAML = "yaml"

	NUMCPUS_CONFIG_OUTPUT_FORMAT_DEFAULT = OUTPUT_FORMAT_TEXT
	NUMCPUS_CONFIG_SHOW_SIGNALS_DEFAULT  = true
)

var validOutputFormats = map[string]bool{
	OUTPUT_FORMAT_TEXT: true,
	OUTPUT_FORMAT_YAML: true,
}

type NumcpusConfig struct {
	// The report format, text or yaml. It may be overridden by --format
	// command line arg.
	OutputFormat string `yaml:"output_format"`

	// Whether to list the signals the counts were based upon, for text format;
	// yaml format always includes them.
	ShowSignals bool `yaml:"show_signals"`

	// Specific components configuration.
	ProbeConfig  *ProbeConfig          `yaml:"probe_config"`
	LoggerConfig *logrusx.LoggerConfig `yaml:"log_config"`
}

func DefaultNumcpusConfig() *NumcpusConfig {
	return &NumcpusConfig{
		OutputFormat: NUMCPUS_CONFIG_OUTPUT_FORMAT_DEFAULT,
		ShowSignals:  NUMCPUS_CONFIG_SHOW_SIGNALS_DEFAULT,
		ProbeConfig:  DefaultProbeConfig(),
		LoggerConfig: logrusx.DefaultLoggerConfig(),
	}
}

func (cfg *NumcpusConfig) Validate() error {
	if !validOutputFormats[cfg.OutputFormat] {
		return fmt.Errorf("output_format: %q: invalid value", cfg.OutputFormat)
	}
	if _, err := cfg.ProbeConfig.GetMaxReadSize(); err != nil {
		return err
	}
	return nil
}

// LoadConfig loads the configuration from the specified YAML file (or buffer,
// for testing) and it returns the numcpus_config section primed w/ default
// values. An empty file name and a nil buffer yield the default config.
func LoadConfig(cfgFile string, buf []byte) (*NumcpusConfig, error) {
	numcpusConfig := DefaultNumcpusConfig()

	if buf == nil {
		if cfgFile == "" {
			return numcpusConfig, nil
		}
		// Normal case, buf is pre-populated only for testing.
		f, err := os.Open(cfgFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
		}
	}

	docNode := yaml.Node{}
	err := yaml.Unmarshal(buf, &docNode)
	if err != nil {
		return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
	}

	if docNode.Kind == yaml.DocumentNode && len(docNode.Content) > 0 {
		rootNode := docNode.Content[0]
		if rootNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("file: %q: invalid YAML root node %q", cfgFile, rootNode.Tag)
		}
		// Key, value pairs:
		for i := 0; i+1 < len(rootNode.Content); i += 2 {
			keyNode, valNode := rootNode.Content[i], rootNode.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode || keyNode.Value != NUMCPUS_CONFIG_SECTION_NAME {
				continue
			}
			if valNode.Kind != yaml.MappingNode {
				continue
			}
			if err = valNode.Decode(numcpusConfig); err != nil {
				return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
			}
		}
	}

	if err = numcpusConfig.Validate(); err != nil {
		return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
	}
	return numcpusConfig, nil
}
