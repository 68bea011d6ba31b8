package typedann

// Dimension fixes the vector dimension of an Index at compile time.
// Implementations are zero-size types; define your own for other sizes:
//
//	type Dims100 struct{}
//
//	func (Dims100) Dimensions() int { return 100 }
type Dimension interface {
	Dimensions() int
}

type (
	Dims2    struct{}
	Dims3    struct{}
	Dims4    struct{}
	Dims8    struct{}
	Dims16   struct{}
	Dims32   struct{}
	Dims64   struct{}
	Dims128  struct{}
	Dims256  struct{}
	Dims384  struct{}
	Dims512  struct{}
	Dims768  struct{}
	Dims1024 struct{}
	Dims1536 struct{}
	Dims3072 struct{}
)

func (Dims2) Dimensions() int    { return 2 }
func (Dims3) Dimensions() int    { return 3 }
func (Dims4) Dimensions() int    { return 4 }
func (Dims8) Dimensions() int    { return 8 }
func (Dims16) Dimensions() int   { return 16 }
func (Dims32) Dimensions() int   { return 32 }
func (Dims64) Dimensions() int   { return 64 }
func (Dims128) Dimensions() int  { return 128 }
func (Dims256) Dimensions() int  { return 256 }
func (Dims384) Dimensions() int  { return 384 }
func (Dims512) Dimensions() int  { return 512 }
func (Dims768) Dimensions() int  { return 768 }
func (Dims1024) Dimensions() int { return 1024 }
func (Dims1536) Dimensions() int { return 1536 }
func (Dims3072) Dimensions() int { return 3072 }
