package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultOutputDir         = "outputs"
	defaultEvalscopeBin      = "evalscope"
	defaultAPIKey            = "EMPTY"
	defaultLimit             = 500
	defaultMaxParallel       = 2
	defaultModelParallel     = 1
	defaultRequestTimeoutSec = 36000
	defaultReadyTimeoutSec   = 1800
	defaultPollIntervalSec   = 5
	defaultHost              = "127.0.0.1"
	defaultPort              = 8801
	defaultImage             = "vllm/vllm-openai:latest"
	defaultMaxModelLen       = 32768
	defaultMaxNumSeqs        = 32
	defaultBatchedTokens     = 32768
	defaultGPUMemoryUtil     = 0.90
	defaultMaxNewTokens      = 32768
)

// GenerationConfig is the decoding configuration forwarded to the evaluation
// tool. Deterministic decoding is the default: sampling off, temperature 0.
type GenerationConfig struct {
	Temperature  float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	DoSample     bool    `json:"do_sample" yaml:"do_sample" toml:"do_sample"`
	MaxNewTokens int     `json:"max_new_tokens" yaml:"max_new_tokens" toml:"max_new_tokens"`
}

// ServingConfig describes how serving containers are provisioned.
type ServingConfig struct {
	Image                string  `json:"image" yaml:"image" toml:"image"`
	ModelsDir            string  `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	GPUMemoryUtilization float64 `json:"gpu_memory_utilization" yaml:"gpu_memory_utilization" toml:"gpu_memory_utilization"`
	MaxModelLen          int     `json:"max_model_len" yaml:"max_model_len" toml:"max_model_len"`
	MaxNumSeqs           int     `json:"max_num_seqs" yaml:"max_num_seqs" toml:"max_num_seqs"`
	MaxNumBatchedTokens  int     `json:"max_num_batched_tokens" yaml:"max_num_batched_tokens" toml:"max_num_batched_tokens"`
	EnableChunkedPrefill bool    `json:"enable_chunked_prefill" yaml:"enable_chunked_prefill" toml:"enable_chunked_prefill"`
}

// ModelTarget is one model deployment: identifier, endpoint and the
// container-level resources it exclusively owns while its batch runs.
type ModelTarget struct {
	Name           string `json:"name" yaml:"name" toml:"name"`
	ServedName     string `json:"served_name" yaml:"served_name" toml:"served_name"`
	Path           string `json:"path" yaml:"path" toml:"path"`
	Host           string `json:"host" yaml:"host" toml:"host"`
	Port           int    `json:"port" yaml:"port" toml:"port"`
	GPUs           []int  `json:"gpus" yaml:"gpus" toml:"gpus"`
	TensorParallel int    `json:"tensor_parallel" yaml:"tensor_parallel" toml:"tensor_parallel"`
}

// BaseURL returns the root endpoint of the target's inference server.
func (m ModelTarget) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", m.Host, m.Port)
}

// APIURL returns the OpenAI-compatible chat completions endpoint.
func (m ModelTarget) APIURL() string {
	return m.BaseURL() + "/v1/chat/completions"
}

// ContainerName returns the serving container name for this target.
func (m ModelTarget) ContainerName() string {
	name := strings.NewReplacer("/", "-", ":", "-", ".", "-").Replace(m.Name)
	return "chinda-eval-" + name
}

// Config holds runtime parameters for the orchestrator.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	OutputDir         string           `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	EvalscopeBin      string           `json:"evalscope_bin" yaml:"evalscope_bin" toml:"evalscope_bin"`
	APIKey            string           `json:"api_key" yaml:"api_key" toml:"api_key"`
	StatusAddr        string           `json:"status_addr" yaml:"status_addr" toml:"status_addr"`
	Limit             int              `json:"limit" yaml:"limit" toml:"limit"`
	MaxParallel       int              `json:"max_parallel" yaml:"max_parallel" toml:"max_parallel"`
	ModelParallel     int              `json:"model_parallel" yaml:"model_parallel" toml:"model_parallel"`
	RequestTimeoutSec int              `json:"request_timeout_sec" yaml:"request_timeout_sec" toml:"request_timeout_sec"`
	ReadyTimeoutSec   int              `json:"ready_timeout_sec" yaml:"ready_timeout_sec" toml:"ready_timeout_sec"`
	PollIntervalSec   int              `json:"poll_interval_sec" yaml:"poll_interval_sec" toml:"poll_interval_sec"`
	SampleLimits      map[string]int   `json:"sample_limits" yaml:"sample_limits" toml:"sample_limits"`
	Generation        GenerationConfig `json:"generation" yaml:"generation" toml:"generation"`
	Serving           ServingConfig    `json:"serving" yaml:"serving" toml:"serving"`
	Models            []ModelTarget    `json:"models" yaml:"models" toml:"models"`
}

// Default returns a Config with every default applied and no models.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields in place.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.EvalscopeBin == "" {
		c.EvalscopeBin = defaultEvalscopeBin
	}
	if c.APIKey == "" {
		c.APIKey = defaultAPIKey
	}
	if c.Limit <= 0 {
		c.Limit = defaultLimit
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = defaultMaxParallel
	}
	if c.ModelParallel <= 0 {
		c.ModelParallel = defaultModelParallel
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = defaultRequestTimeoutSec
	}
	if c.ReadyTimeoutSec <= 0 {
		c.ReadyTimeoutSec = defaultReadyTimeoutSec
	}
	if c.PollIntervalSec <= 0 {
		c.PollIntervalSec = defaultPollIntervalSec
	}
	if c.Generation.MaxNewTokens <= 0 {
		c.Generation.MaxNewTokens = defaultMaxNewTokens
	}
	if c.Serving.Image == "" {
		c.Serving.Image = defaultImage
	}
	if c.Serving.GPUMemoryUtilization <= 0 {
		c.Serving.GPUMemoryUtilization = defaultGPUMemoryUtil
	}
	if c.Serving.MaxModelLen <= 0 {
		c.Serving.MaxModelLen = defaultMaxModelLen
	}
	if c.Serving.MaxNumSeqs <= 0 {
		c.Serving.MaxNumSeqs = defaultMaxNumSeqs
	}
	if c.Serving.MaxNumBatchedTokens <= 0 {
		c.Serving.MaxNumBatchedTokens = defaultBatchedTokens
	}
	for i := range c.Models {
		m := &c.Models[i]
		if m.ServedName == "" {
			m.ServedName = m.Name
		}
		if m.Host == "" {
			m.Host = defaultHost
		}
		if m.Port <= 0 {
			m.Port = defaultPort + i
		}
		if m.TensorParallel <= 0 {
			m.TensorParallel = max(len(m.GPUs), 1)
		}
	}
}

// RequestTimeout returns the per-request upper bound for one evaluation call.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// ReadyTimeout returns the total wait budget for server readiness.
func (c Config) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutSec) * time.Second
}

// PollInterval returns the readiness poll interval.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// SampleLimitFor resolves the sample cap for a benchmark: config override
// first, then the catalog override, then the global limit.
func (c Config) SampleLimitFor(b catalog.Benchmark) int {
	if n, ok := c.SampleLimits[b.ID]; ok && n > 0 {
		return n
	}
	if b.SampleLimit > 0 {
		return b.SampleLimit
	}
	return c.Limit
}

// Target returns the configured model target with the given name.
func (c Config) Target(name string) (ModelTarget, bool) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelTarget{}, false
}
