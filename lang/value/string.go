package value

// StringObj is an immutable byte sequence plus a precomputed FNV-1a hash.
// Two StringObj handles with equal content are always the same handle: all
// construction goes through an Interner (§4.5).
type StringObj struct {
	Chars string
	Hash  uint32
}

var _ Object = (*StringObj)(nil)

func (s *StringObj) ObjType() ObjType { return ObjString }
func (s *StringObj) String() string   { return s.Chars }

func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// Interner is the process-wide (or, here, per-VM) mapping from character
// content to the canonical *StringObj, as specified in §4.5.
type Interner struct {
	strings map[string]*StringObj
}

// NewInterner returns an empty interner.
func NewInterner() *Interner {
	return &Interner{strings: make(map[string]*StringObj)}
}

// Intern returns the canonical *StringObj for s, creating and registering a
// new one on first sight.
func (in *Interner) Intern(s string) *StringObj {
	if existing, ok := in.strings[s]; ok {
		return existing
	}
	obj := &StringObj{Chars: s, Hash: hashString(s)}
	in.strings[s] = obj
	return obj
}

// Len reports the number of distinct interned strings.
func (in *Interner) Len() int { return len(in.strings) }

// Roots returns every interned string, per the GC rooting contract of §5:
// the interner's keys are permanent roots.
func (in *Interner) Roots() []*StringObj {
	out := make([]*StringObj, 0, len(in.strings))
	for _, s := range in.strings {
		out = append(out, s)
	}
	return out
}
