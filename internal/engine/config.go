package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/quantrail/backtest/internal/stop"
	"github.com/quantrail/backtest/internal/strategy"
	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/pkg/errors"
)

const defaultInitialCapital = 100000

// Config is the YAML configuration of one backtest run.
type Config struct {
	Strategy  strategy.Name                `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=The signal generation strategy to run" validate:"required,oneof=buy_and_hold ma_cross momentum rsi"`
	Params    types.StrategyParams         `yaml:"params" json:"params" jsonschema:"title=Parameters,description=Strategy knobs and cost parameters"`
	Stop      optional.Option[stop.Config] `yaml:"stop" json:"stop" jsonschema:"title=Stop Config,description=Optional dynamic stop loss and take profit settings"`
	StartTime optional.Option[time.Time]   `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the bar range"`
	EndTime   optional.Option[time.Time]   `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the bar range"`
	// MinVersion is the oldest engine version this config is written for.
	MinVersion string `yaml:"min_version" json:"min_version,omitempty" jsonschema:"title=Minimum Version,description=Oldest engine version this config supports"`
}

// EmptyConfig returns a zero configuration.
func EmptyConfig() Config {
	return Config{
		Strategy:   "",
		Params:     types.StrategyParams{},
		Stop:       optional.None[stop.Config](),
		StartTime:  optional.None[time.Time](),
		EndTime:    optional.None[time.Time](),
		MinVersion: "",
	}
}

// UnmarshalYAML implements custom unmarshaling for Config.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plainConfig struct {
		Strategy   strategy.Name        `yaml:"strategy"`
		Params     types.StrategyParams `yaml:"params"`
		Stop       *stop.Config         `yaml:"stop"`
		StartTime  *time.Time           `yaml:"start_time"`
		EndTime    *time.Time           `yaml:"end_time"`
		MinVersion string               `yaml:"min_version"`
	}

	var config plainConfig
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.Strategy = config.Strategy
	c.Params = config.Params
	c.MinVersion = config.MinVersion

	c.Stop = optional.None[stop.Config]()
	if config.Stop != nil {
		c.Stop = optional.Some(*config.Stop)
	}

	c.StartTime = optional.None[time.Time]()
	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	c.EndTime = optional.None[time.Time]()
	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine config", err)
	}

	if c.Stop.IsSome() {
		if err := validate.Struct(c.Stop.Unwrap()); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid stop config", err)
		}
	}

	return nil
}

// withDefaults fills the universal parameters the config leaves at zero.
func (c Config) withDefaults() Config {
	if c.Params.InitialCapital == 0 {
		c.Params.InitialCapital = defaultInitialCapital
	}

	return c
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	strategyNames := make([]any, 0, len(strategy.AllNames))
	for _, name := range strategy.AllNames {
		strategyNames = append(strategyNames, string(name))
	}

	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "strategy.Name") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: strategyNames,
				}
			}

			if strings.Contains(t.String(), "optional.Option[stop.Config]") {
				return jsonschema.Reflect(&stop.Config{})
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-config"
	schema.Description = "Configuration schema for the backtest engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
