package settings

import (
	"net/http"
	"os"
	"time"

	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// APISettings hold the credentials and endpoints for the remote completion
// service. Keys and base urls are keyed by api type so a single settings file
// can carry several providers.
type APISettings struct {
	APIKeys  map[string]string `yaml:"api_keys,omitempty"`
	BaseUrls map[string]string `yaml:"base_urls,omitempty"`
}

type ClientSettings struct {
	Timeout        *time.Duration `yaml:"timeout,omitempty"`
	TimeoutSeconds *int           `yaml:"timeout_second,omitempty"`
	Organization   *string        `yaml:"organization,omitempty"`
	UserAgent      *string        `yaml:"user_agent,omitempty"`
	HTTPClient     *http.Client   `yaml:"-" json:"-"`
}

// UnmarshalYAML overrides YAML parsing to convert time.duration from int
func (cs *ClientSettings) UnmarshalYAML(value *yaml.Node) error {
	type Alias ClientSettings
	aux := &struct {
		Timeout *int `yaml:"timeout,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(cs),
	}
	if err := value.Decode(aux); err != nil {
		return err
	}
	if aux.Timeout != nil {
		t := time.Duration(*aux.Timeout) * time.Second
		cs.Timeout = &t
		cs.TimeoutSeconds = aux.Timeout
	}
	return nil
}

type ChatSettings struct {
	Engine            *string  `yaml:"engine,omitempty"`
	MaxResponseTokens *int     `yaml:"max_response_tokens,omitempty"`
	Temperature       *float64 `yaml:"temperature,omitempty"`
	TopP              *float64 `yaml:"top_p,omitempty"`
	Stop              []string `yaml:"stop,omitempty"`
}

// PlannerSettings bound the clarifying-question dialogue itself.
type PlannerSettings struct {
	MaxQuestions   int `yaml:"max_questions,omitempty"`
	MaxInputLength int `yaml:"max_input_length,omitempty"`
}

type StepSettings struct {
	API     *APISettings     `yaml:"api,omitempty"`
	Client  *ClientSettings  `yaml:"client,omitempty"`
	Chat    *ChatSettings    `yaml:"chat,omitempty"`
	Planner *PlannerSettings `yaml:"planner,omitempty"`
}

const (
	DefaultEngine         = "gpt-4o-mini"
	DefaultMaxTokens      = 1024
	DefaultMaxQuestions   = 5
	DefaultMaxInputLength = 4000
)

func NewStepSettings() *StepSettings {
	engine := DefaultEngine
	maxTokens := DefaultMaxTokens

	return &StepSettings{
		API: &APISettings{
			APIKeys:  map[string]string{},
			BaseUrls: map[string]string{},
		},
		Client: &ClientSettings{},
		Chat: &ChatSettings{
			Engine:            &engine,
			MaxResponseTokens: &maxTokens,
			Stop:              []string{},
		},
		Planner: &PlannerSettings{
			MaxQuestions:   DefaultMaxQuestions,
			MaxInputLength: DefaultMaxInputLength,
		},
	}
}

func (s *StepSettings) Clone() *StepSettings {
	return clone.Clone(s).(*StepSettings)
}

// NewStepSettingsFromYAML loads settings from a YAML file, on top of defaults.
func NewStepSettingsFromYAML(filename string) (*StepSettings, error) {
	s := NewStepSettings()

	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open settings file %s", filename)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if err := yaml.NewDecoder(f).Decode(s); err != nil {
		return nil, errors.Wrapf(err, "could not parse settings file %s", filename)
	}

	return s, nil
}

// NewStepSettingsFromViper builds settings from the flags and config file that
// viper collected. This is how the CLI passes configuration into the library;
// the library itself never reads environment or globals.
func NewStepSettingsFromViper() (*StepSettings, error) {
	s := NewStepSettings()

	if key := viper.GetString("openai-api-key"); key != "" {
		s.API.APIKeys["openai-api-key"] = key
	}
	if baseURL := viper.GetString("openai-base-url"); baseURL != "" {
		s.API.BaseUrls["openai-base-url"] = baseURL
	}
	if engine := viper.GetString("ai-engine"); engine != "" {
		s.Chat.Engine = &engine
	}
	if maxTokens := viper.GetInt("ai-max-response-tokens"); maxTokens > 0 {
		s.Chat.MaxResponseTokens = &maxTokens
	}
	if viper.IsSet("ai-temperature") {
		temperature := viper.GetFloat64("ai-temperature")
		s.Chat.Temperature = &temperature
	}
	if timeout := viper.GetInt("timeout"); timeout > 0 {
		t := time.Duration(timeout) * time.Second
		s.Client.Timeout = &t
		s.Client.TimeoutSeconds = &timeout
	}
	if maxQuestions := viper.GetInt("max-questions"); maxQuestions > 0 {
		s.Planner.MaxQuestions = maxQuestions
	}
	if maxInputLength := viper.GetInt("max-input-length"); maxInputLength > 0 {
		s.Planner.MaxInputLength = maxInputLength
	}

	return s, nil
}
