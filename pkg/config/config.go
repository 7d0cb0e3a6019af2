package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName 配置目录名
const AppName = "uiauto"

// Duration 以字符串形式（如 "3s"）序列化的时长
type Duration time.Duration

// Std 转换为 time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalYAML() (interface{}, error) { return d.String(), nil }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return fmt.Errorf("无效的时长: %s", data)
		}
		*d = Duration(n)
		return nil
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("无效的时长 %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// DesktopConfig 桌面会话配置
type DesktopConfig struct {
	UseBackgroundApps bool `yaml:"use_background_apps" json:"use_background_apps"`
	ActivateApp       bool `yaml:"activate_app" json:"activate_app"`
}

// LocatorConfig 元素定位等待策略
type LocatorConfig struct {
	Timeout      Duration `yaml:"timeout" json:"timeout"`
	PollInterval Duration `yaml:"poll_interval" json:"poll_interval"`
}

// RecorderConfig 录制配置
type RecorderConfig struct {
	RecordKeyboard      bool `yaml:"record_keyboard" json:"record_keyboard"`
	RecordMouse         bool `yaml:"record_mouse" json:"record_mouse"`
	CaptureUIElements   bool `yaml:"capture_ui_elements" json:"capture_ui_elements"`
	MouseMoveSampleRate int  `yaml:"mouse_move_sample_rate" json:"mouse_move_sample_rate"`
	MaxHierarchyDepth   int  `yaml:"max_hierarchy_depth" json:"max_hierarchy_depth"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// StreamConfig 事件流转发配置
type StreamConfig struct {
	ListenAddr        string     `yaml:"listen_addr" json:"listen_addr"`
	PublishURL        string     `yaml:"publish_url" json:"publish_url"`
	HeartbeatInterval Duration   `yaml:"heartbeat_interval" json:"heartbeat_interval"`
	ReconnectDelays   []Duration `yaml:"reconnect_delays" json:"reconnect_delays"`
}

// Config 完整配置
type Config struct {
	Desktop  DesktopConfig  `yaml:"desktop" json:"desktop"`
	Locator  LocatorConfig  `yaml:"locator" json:"locator"`
	Recorder RecorderConfig `yaml:"recorder" json:"recorder"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Stream   StreamConfig   `yaml:"stream" json:"stream"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Desktop: DesktopConfig{
			UseBackgroundApps: false,
			ActivateApp:       true,
		},
		Locator: LocatorConfig{
			Timeout:      Duration(3 * time.Second),
			PollInterval: Duration(200 * time.Millisecond),
		},
		Recorder: RecorderConfig{
			RecordKeyboard:      true,
			RecordMouse:         true,
			CaptureUIElements:   true,
			MouseMoveSampleRate: 10,
			MaxHierarchyDepth:   32,
		},
		Log: LogConfig{
			Level: "INFO",
		},
		Stream: StreamConfig{
			ListenAddr:        "localhost:50051",
			HeartbeatInterval: Duration(30 * time.Second),
			ReconnectDelays: []Duration{
				Duration(1 * time.Second),
				Duration(2 * time.Second),
				Duration(5 * time.Second),
				Duration(10 * time.Second),
				Duration(30 * time.Second),
			},
		},
	}
}

// normalize 将零值字段补齐为默认值
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Locator.Timeout <= 0 {
		c.Locator.Timeout = def.Locator.Timeout
	}
	if c.Locator.PollInterval <= 0 {
		c.Locator.PollInterval = def.Locator.PollInterval
	}
	if c.Recorder.MouseMoveSampleRate <= 0 {
		c.Recorder.MouseMoveSampleRate = def.Recorder.MouseMoveSampleRate
	}
	if c.Recorder.MaxHierarchyDepth <= 0 {
		c.Recorder.MaxHierarchyDepth = def.Recorder.MaxHierarchyDepth
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Stream.HeartbeatInterval <= 0 {
		c.Stream.HeartbeatInterval = def.Stream.HeartbeatInterval
	}
	if len(c.Stream.ReconnectDelays) == 0 {
		c.Stream.ReconnectDelays = def.Stream.ReconnectDelays
	}
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器，目录为 $XDG_CONFIG_HOME/uiauto
func NewManager() *Manager {
	return NewManagerWithDir(filepath.Join(xdg.ConfigHome, AppName))
}

// NewManagerWithDir 使用指定目录创建配置管理器
// 目录下已有 config.json 而没有 config.yaml 时沿用 JSON 格式
func NewManagerWithDir(configDir string) *Manager {
	configFile := filepath.Join(configDir, "config.yaml")
	jsonFile := filepath.Join(configDir, "config.json")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if _, err := os.Stat(jsonFile); err == nil {
			configFile = jsonFile
		}
	}
	return &Manager{
		configDir:  configDir,
		configFile: configFile,
	}
}

// NewManagerWithFile 使用指定配置文件创建配置管理器，格式由扩展名决定
func NewManagerWithFile(path string) *Manager {
	return &Manager{
		configDir:  filepath.Dir(path),
		configFile: path,
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

func (m *Manager) isJSON() bool {
	return strings.EqualFold(filepath.Ext(m.configFile), ".json")
}

// Load 加载配置，文件不存在时返回默认配置
func (m *Manager) Load() (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultConfig()
	if m.isJSON() {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}

	config.normalize()
	return config, nil
}

// Save 保存配置
func (m *Manager) Save(config *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if m.isJSON() {
		data, err = json.MarshalIndent(config, "", "  ")
	} else {
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*Config, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(config *Config) error {
	return defaultManager.Save(config)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
