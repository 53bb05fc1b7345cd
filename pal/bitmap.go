package pal

// Bitmap records which words of memory have been written.
type Bitmap [MEMORY_SIZE / 8]uint8

func bitmapIndex(field, address Word) (index int, mask uint8) {
	full := int(field&7)<<12 | int(address&WORD_MASK)
	return full / 8, 1 << (full & 7)
}

// Mark records a write, returning true if the word was already written.
func (bm *Bitmap) Mark(field, address Word) (duplicate bool) {
	index, mask := bitmapIndex(field, address)
	duplicate = bm[index]&mask != 0
	bm[index] |= mask
	return
}

// IsSet is true if the word has been written.
func (bm *Bitmap) IsSet(field, address Word) bool {
	index, mask := bitmapIndex(field, address)
	return bm[index]&mask != 0
}

// Byte returns the usage bits of the eight words starting at a full
// (field and address) location rounded down to a multiple of eight.
func (bm *Bitmap) Byte(location int) uint8 {
	return bm[(location%MEMORY_SIZE)/8]
}

// CountEmpty counts the unused words from a full location onward,
// in whole bytes of eight words.
func (bm *Bitmap) CountEmpty(location int) (count int) {
	for index := location / 8; index < len(bm) && bm[index] == 0; index++ {
		count += 8
	}
	return
}

// FieldUsed is true if any word of the field has been written.
func (bm *Bitmap) FieldUsed(field Word) bool {
	return bm.CountEmpty(int(field&7)<<12) < FIELD_SIZE
}

// Clear forgets all writes.
func (bm *Bitmap) Clear() {
	clear(bm[:])
}
