package redikit

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/aphistic/sweet"
	. "github.com/onsi/gomega"
)

type ConfigSuite struct{}

const testConfig = `
main: sessions
caches:
  - name: default
    addr: localhost:6379
  - name: sessions
    addr: localhost:6380
    password: hunter2
    database: 3
    poolCapacity: 20
    connectTimeout: 250ms
    borrowTimeout: 2s
    staleRetries: 1
`

func (s *ConfigSuite) TestParseConfig(t sweet.T) {
	config, err := ParseConfig([]byte(testConfig))
	Expect(err).To(BeNil())
	Expect(config.Main).To(Equal("sessions"))
	Expect(config.Caches).To(HaveLen(2))
	Expect(config.Caches[1]).To(Equal(CacheConfig{
		Name:           "sessions",
		Addr:           "localhost:6380",
		Password:       "hunter2",
		Database:       3,
		PoolCapacity:   20,
		ConnectTimeout: time.Millisecond * 250,
		BorrowTimeout:  time.Second * 2,
		StaleRetries:   1,
	}))
}

func (s *ConfigSuite) TestLoadConfig(t sweet.T) {
	dir, err := os.MkdirTemp("", "redikit")
	Expect(err).To(BeNil())
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "redikit.yaml")
	Expect(os.WriteFile(path, []byte(testConfig), 0o600)).To(BeNil())

	config, err := LoadConfig(path)
	Expect(err).To(BeNil())
	Expect(config.Caches[0].Name).To(Equal("default"))

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	Expect(err).NotTo(BeNil())
}

func (s *ConfigSuite) TestValidate(t sweet.T) {
	cases := []struct {
		config string
		target error
	}{
		{"caches: []", ErrInvalidArgument},
		{"caches: [{addr: 'localhost:6379'}]", ErrInvalidArgument},
		{"caches: [{name: a}]", ErrInvalidArgument},
		{"caches: [{name: a, addr: x, poolCapacity: -1}]", ErrInvalidArgument},
		{"caches: [{name: a, addr: x, staleRetries: -1}]", ErrInvalidArgument},
		{"caches: [{name: a, addr: x}, {name: a, addr: y}]", ErrDuplicateName},
		{"main: b\ncaches: [{name: a, addr: x}]", ErrNotFound},
	}

	for _, c := range cases {
		_, err := ParseConfig([]byte(c.config))
		Expect(errors.Is(err, c.target)).To(BeTrue(), c.config)
	}
}

func (s *ConfigSuite) TestParseConfigMalformed(t sweet.T) {
	_, err := ParseConfig([]byte("caches: [{name: a, connectTimeout: soon}]"))
	Expect(err).NotTo(BeNil())
}

func (s *ConfigSuite) TestBuild(t sweet.T) {
	config, err := ParseConfig([]byte(testConfig))
	Expect(err).To(BeNil())

	registry, err := config.Build(WithLogger(testLogger))
	Expect(err).To(BeNil())
	defer registry.Close()

	Expect(registry.Names()).To(Equal([]string{"default", "sessions"}))

	main, ok := registry.Main()
	Expect(ok).To(BeTrue())
	Expect(main.Name()).To(Equal("sessions"))
	Expect(main.database).To(Equal(3))
	Expect(main.staleRetries).To(Equal(1))
	Expect(*main.borrowTimeout).To(Equal(time.Second * 2))

	other, ok := registry.Lookup("default")
	Expect(ok).To(BeTrue())
	Expect(other.borrowTimeout).To(BeNil())
}

func (s *ConfigSuite) TestBuildDefaultMain(t sweet.T) {
	config, err := ParseConfig([]byte("caches: [{name: a, addr: x}, {name: b, addr: y}]"))
	Expect(err).To(BeNil())

	registry, err := config.Build(WithLogger(testLogger))
	Expect(err).To(BeNil())
	defer registry.Close()

	main, _ := registry.Main()
	Expect(main.Name()).To(Equal("a"))
}
