package typesys

// Method describes one service method: its selector and its declared
// "(args)ret" signature.
type Method struct {
	ID        uint32
	Name      string
	Signature Signature
}

// Signal describes one service signal: its selector and its declared
// "(args)" signature (no return type).
type Signal struct {
	ID        uint32
	Name      string
	Signature Signature
}

// MetaObject describes a service's methods and signals, per spec.md
// §3: "consumed, not owned here". The core only needs lookup by id.
type MetaObject struct {
	methods map[uint32]Method
	signals map[uint32]Signal
}

// NewMetaObject builds a MetaObject from method and signal lists,
// hashing names into ids via HashID when a caller does not assign one
// explicitly (ID == 0).
func NewMetaObject(methods []Method, signals []Signal) *MetaObject {
	mo := &MetaObject{
		methods: make(map[uint32]Method, len(methods)),
		signals: make(map[uint32]Signal, len(signals)),
	}
	for _, m := range methods {
		if m.ID == 0 {
			m.ID = HashID(m.Name)
		}
		mo.methods[m.ID] = m
	}
	for _, s := range signals {
		if s.ID == 0 {
			s.ID = HashID(s.Name)
		}
		mo.signals[s.ID] = s
	}
	return mo
}

// MethodByID looks up a method by selector.
func (mo *MetaObject) MethodByID(id uint32) (Method, bool) {
	if mo == nil {
		return Method{}, false
	}
	m, ok := mo.methods[id]
	return m, ok
}

// SignalByID looks up a signal by selector.
func (mo *MetaObject) SignalByID(id uint32) (Signal, bool) {
	if mo == nil {
		return Signal{}, false
	}
	s, ok := mo.signals[id]
	return s, ok
}
