package configschema

// These mirror schemas.py's protocol_cfg helper: a neighbouring "protocol"
// field discriminates which concrete "conf" shape applies. In Go each
// concrete protocol becomes its own tagged variant carrying its own conf
// struct (spec.md §9 design note on PolyModelType).

type OCSPConfig struct {
	URL        string   `yaml:"url" json:"url" validate:"required,url"`
	Responders []string `yaml:"responders" json:"responders" validate:"dive"`
	Retry      int      `yaml:"retry" json:"retry" validate:"min=0"`
}

type TSPConfig struct {
	URL       string   `yaml:"url" json:"url" validate:"required,url"`
	Signers   []string `yaml:"signers" json:"signers" validate:"required,min=1,dive"`
	DelayTime int      `yaml:"delaytime" json:"delaytime" validate:"min=0"`
	Retry     int      `yaml:"retry" json:"retry" validate:"min=0"`
}

// QualificationConfig is one entry of the election config's qualification
// list, a discriminated union over {ocsp, ocsptm, tsp, tspreg}.
type QualificationConfig struct {
	Protocol string      `yaml:"protocol" json:"protocol" validate:"required,oneof=ocsp ocsptm tsp tspreg"`
	OCSP     *OCSPConfig `yaml:"-" json:"-"`
	TSP      *TSPConfig  `yaml:"-" json:"-"`
	raw      map[string]interface{}
}

// UnmarshalYAML decodes the wrapper {protocol, conf} shape and resolves conf
// into the concrete variant named by protocol.
func (q *QualificationConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var wrapper struct {
		Protocol string      `yaml:"protocol"`
		Conf     yamlRawNode `yaml:"conf"`
	}
	if err := unmarshal(&wrapper); err != nil {
		return err
	}
	q.Protocol = wrapper.Protocol
	switch wrapper.Protocol {
	case "ocsp", "ocsptm":
		var c OCSPConfig
		if err := wrapper.Conf.Decode(&c); err != nil {
			return err
		}
		q.OCSP = &c
	case "tsp", "tspreg":
		var c TSPConfig
		if err := wrapper.Conf.Decode(&c); err != nil {
			return err
		}
		q.TSP = &c
	}
	return nil
}

// StorageConfig is the technical config's storage backend, a discriminated
// union over {file, etcd}.
type StorageConfig struct {
	Protocol string             `yaml:"protocol" json:"protocol" validate:"required,oneof=file etcd"`
	File     *FileStorageConfig `yaml:"-" json:"-"`
	Etcd     *EtcdStorageConfig `yaml:"-" json:"-"`
}

type FileStorageConfig struct {
	WorkDir string `yaml:"wd" json:"wd" validate:"required"`
}

type EtcdStorageConfig struct {
	CA             string   `yaml:"ca" json:"ca" validate:"required"`
	ConnectTimeout int      `yaml:"conntimeout" json:"conntimeout" validate:"min=0"`
	OpTimeout      int      `yaml:"optimeout" json:"optimeout" validate:"min=0"`
	Bootstrap      []string `yaml:"bootstrap" json:"bootstrap" validate:"required,min=1"`
}

func (s *StorageConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var wrapper struct {
		Protocol string      `yaml:"protocol"`
		Conf     yamlRawNode `yaml:"conf"`
	}
	if err := unmarshal(&wrapper); err != nil {
		return err
	}
	s.Protocol = wrapper.Protocol
	switch wrapper.Protocol {
	case "file":
		var c FileStorageConfig
		if err := wrapper.Conf.Decode(&c); err != nil {
			return err
		}
		s.File = &c
	case "etcd":
		var c EtcdStorageConfig
		if err := wrapper.Conf.Decode(&c); err != nil {
			return err
		}
		s.Etcd = &c
	}
	return nil
}

// VoteContainerConfig is the signed-container profile shared by trust and
// election configs (bdoc or dummy, for tests).
type VoteContainerConfig struct {
	BDoc  *BDocConfig  `yaml:"bdoc" json:"bdoc,omitempty"`
	Dummy *DummyConfig `yaml:"dummy" json:"dummy,omitempty"`
}

type BDocConfig struct {
	BDocSize      int      `yaml:"bdocsize" json:"bdocsize" validate:"required,min=1"`
	FileSize      int      `yaml:"filesize" json:"filesize" validate:"required,min=1"`
	Roots         []string `yaml:"roots" json:"roots" validate:"required,min=1"`
	Intermediates []string `yaml:"intermediates" json:"intermediates"`
	Profile       string   `yaml:"profile" json:"profile" validate:"required,oneof=BES TM TS"`
	OCSP          *OCSPConfig `yaml:"ocsp" json:"ocsp,omitempty"`
	TSP           *TSPConfig  `yaml:"tsp" json:"tsp,omitempty"`
	TSDelayTime   int         `yaml:"tsdelaytime" json:"tsdelaytime" validate:"min=0"`
}

type DummyConfig struct {
	Trusted []string `yaml:"trusted" json:"trusted"`
}

// yamlRawNode defers decoding of a nested YAML block until the discriminator
// is known, the Go analog of schematics' claim_function dispatch.
type yamlRawNode struct {
	unmarshal func(interface{}) error
}

func (n *yamlRawNode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	n.unmarshal = unmarshal
	return nil
}

func (n yamlRawNode) Decode(out interface{}) error {
	if n.unmarshal == nil {
		return nil
	}
	return n.unmarshal(out)
}
