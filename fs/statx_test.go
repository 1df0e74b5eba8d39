package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatxAllIsUnionOfBits(t *testing.T) {
	var union StatxMask
	for _, bit := range []StatxMask{
		StatxType, StatxMode, StatxNlink, StatxUID, StatxGID,
		StatxAtimeSec, StatxMtimeSec, StatxCtimeSec, StatxIno, StatxSize,
		StatxBlocks, StatxBtimeSec, StatxMntID, StatxBlksize, StatxAttributes,
		StatxAtimeNsec, StatxBtimeNsec, StatxCtimeNsec, StatxMtimeNsec,
		StatxRdevMajor, StatxRdevMinor, StatxDevMajor, StatxDevMinor,
	} {
		union |= bit
	}
	assert.Equal(t, StatxAll, union)
}

func TestMergeStatxOverlayWins(t *testing.T) {
	base := Statx{Mask: StatxAtimeSec | StatxSize, Atime: Timestamp{Sec: 0}, Size: 10}
	overlay := Statx{Mask: StatxMtimeSec | StatxAtimeSec, Atime: Timestamp{Sec: 5678}, Mtime: Timestamp{Sec: 4321}}

	merged := MergeStatx(base, overlay)
	assert.Equal(t, StatxAtimeSec|StatxSize|StatxMtimeSec, merged.Mask)
	assert.Equal(t, int64(5678), merged.Atime.Sec)
	assert.Equal(t, int64(4321), merged.Mtime.Sec)
	assert.Equal(t, uint64(10), merged.Size, "fields absent from the overlay keep the base value")
}

func TestIsSymlink(t *testing.T) {
	const sIFLNK = 0120000
	link := Statx{Mask: StatxType, Mode: sIFLNK}
	assert.True(t, link.IsSymlink())

	const sIFREG = 0100000
	reg := Statx{Mask: StatxType, Mode: sIFREG}
	assert.False(t, reg.IsSymlink())

	noType := Statx{Mode: sIFLNK}
	assert.False(t, noType.IsSymlink(), "type bit absent from mask means undefined, not symlink")
}
