package world

// BlockType enumerates known world block categories.
type BlockType string

const (
	BlockAir    BlockType = "air"
	BlockSolid  BlockType = "solid"
	BlockLiquid BlockType = "liquid"
	// BlockCover is transient surface cover (snow layers, plants) that does
	// not count as ground.
	BlockCover BlockType = "cover"
)

type Block struct {
	Type     BlockType
	Material string
}

// Air is the empty block.
var Air = Block{Type: BlockAir}

// NewSolid returns a solid block of the given material.
func NewSolid(material string) Block {
	return Block{Type: BlockSolid, Material: material}
}

func (b Block) IsAir() bool {
	return blockIsAir(b)
}

func (b Block) IsSolid() bool {
	return b.Type == BlockSolid
}

func blockIsAir(block Block) bool {
	return block.Type == "" || block.Type == BlockAir
}
