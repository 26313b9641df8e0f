// Package memview provides a "view" over a collection of byte slices.
//
// Conceptually, a MemView is like a [][]byte with helper methods that make
// it act like one contiguous []byte. It exists to let the application-layer
// parser hold carry-over bytes and freshly arrived bytes side by side
// without copying either until a field actually completes and needs to be
// handed to the caller as a single contiguous buffer.
package memview

import (
	"bytes"
)

// MemView represents a view on a collection of byte slices.
//
// Modifying a MemView does not change the underlying data; it only changes
// the pointers to where to read data from.
//
// Copying a MemView or passing it by value is like copying a slice - it's
// efficient, but modifications to the copy affect the original MemView and
// vice versa. Use DeepCopy to create a completely independent MemView.
//
// The zero value is an empty MemView ready to use.
type MemView struct {
	buf    [][]byte
	length int64
}

// New creates a MemView over data. It does NOT copy data, so the caller must
// ensure the underlying memory remains valid and unmodified for as long as
// the MemView (or any view derived from it) is in use.
func New(data []byte) MemView {
	if len(data) == 0 {
		return MemView{}
	}
	return MemView{
		buf:    [][]byte{data},
		length: int64(len(data)),
	}
}

// Append appends src to dst in place.
func (dst *MemView) Append(src MemView) {
	dst.buf = append(dst.buf, src.buf...)
	dst.length += src.length
}

// DeepCopy creates a MemView that is completely independent of this one.
func (mv MemView) DeepCopy() MemView {
	newBuf := make([][]byte, len(mv.buf))
	copy(newBuf, mv.buf)
	return MemView{
		buf:    newBuf,
		length: mv.length,
	}
}

// Clear empties the view without releasing the backing slices it referenced.
func (mv *MemView) Clear() {
	mv.buf = mv.buf[:0]
	mv.length = 0
}

// Len returns the number of bytes in the view.
func (mv MemView) Len() int64 {
	return mv.length
}

// GetByte returns the byte at the given index, or 0 if index is out of bounds.
func (mv MemView) GetByte(index int64) byte {
	if index < 0 {
		return 0
	}

	n := index
	for i := 0; i < len(mv.buf); i++ {
		lb := int64(len(mv.buf[i]))
		if n < lb {
			return mv.buf[i][n]
		}
		n -= lb
	}
	return 0
}

// getBytes returns a copy of mv[start:end]. Returns nil if the range is invalid.
func (mv MemView) getBytes(start, end int64) []byte {
	if !(0 <= start && start <= end && end <= mv.Len()) {
		return nil
	}

	result := make([]byte, end-start)
	resultIdx := int64(0)

	for bufIdx := 0; bufIdx < len(mv.buf) && start < end; bufIdx++ {
		bufLen := int64(len(mv.buf[bufIdx]))
		if start >= bufLen {
			start -= bufLen
			end -= bufLen
			continue
		}

		copyEnd := end
		if copyEnd > bufLen {
			copyEnd = bufLen
		}

		copy(result[resultIdx:], mv.buf[bufIdx][start:copyEnd])

		copySize := copyEnd - start
		start = 0
		end -= bufLen
		resultIdx += copySize
	}

	return result
}

// Bytes returns a flattened copy of the view's contents. Field extraction
// uses this when it copies bytes into a carry-over buffer or an owned
// field buffer; unowned single-chunk fields are sliced directly instead.
func (mv MemView) Bytes() []byte {
	return mv.getBytes(0, mv.Len())
}

// SubView returns mv[start:end) as a new view. Returns an empty MemView if
// the range is invalid.
func (mv MemView) SubView(start, end int64) MemView {
	if start >= end {
		return MemView{}
	}

	startBuf := -1
	endBuf := -1
	var startOffset, endOffset int

	var n int64
	for i, b := range mv.buf {
		lb := int64(len(b))
		if startBuf == -1 && n+lb > start {
			startBuf = i
			startOffset = int(start - n)
		}
		if endBuf == -1 && n+lb >= end {
			endBuf = i
			endOffset = int(end - n)
			break
		}
		n += lb
	}

	if startBuf == -1 || endBuf == -1 {
		return MemView{}
	}

	newBuf := make([][]byte, endBuf+1-startBuf)
	copy(newBuf, mv.buf[startBuf:endBuf+1])
	newMV := MemView{
		buf:    newBuf,
		length: end - start,
	}
	if len(newMV.buf) == 1 {
		newMV.buf[0] = newMV.buf[0][startOffset:endOffset]
	} else {
		newMV.buf[0] = newMV.buf[0][startOffset:]
		newMV.buf[len(newMV.buf)-1] = newMV.buf[len(newMV.buf)-1][:endOffset]
	}
	return newMV
}

// Index returns the index of the first occurrence of sep in mv at or after
// start, or -1 if sep does not appear. Returns -1 whenever len(sep) >
// mv.Len()-start, per the delimiter-search contract: a pattern longer than
// the remaining buffer can never match.
//
// TODO: this only works correctly for search strings without a repeated
// prefix. To handle arbitrary needles we would need to back up to the point
// where the needle could have restarted after a partial match. We only ever
// search for fixed protocol delimiters (single bytes, CRLF, CRLFCRLF, and a
// handful of literal keywords), none of which have a repeated prefix.
func (mv MemView) Index(start int64, sep []byte) int64 {
	if int64(len(sep)) > mv.Len()-start {
		return -1
	}

	startBuf := -1
	startOffset := 0
	var currIndex int64
	for i, b := range mv.buf {
		lb := int64(len(b))
		if currIndex+lb-1 < start {
			currIndex += lb
		} else {
			startBuf = i
			startOffset = int(start - currIndex)
			currIndex += int64(startOffset)
			break
		}
	}

	if startBuf == -1 {
		return -1
	} else if len(sep) == 0 {
		return start
	}

	needle := sep
	needleIndex := 0
	for b := startBuf; b < len(mv.buf); b++ {
		haystack := mv.buf[b]

		var i int
		for i = startOffset; i < len(haystack) && needleIndex > 0; i++ {
			if haystack[i] == needle[needleIndex] {
				needleIndex++
				if needleIndex == len(needle) {
					return currIndex + int64(i-startOffset) - int64(len(needle)-1)
				}
			} else {
				// Leave i on the mismatching byte so the search below
				// retries it as the start of a match.
				needleIndex = 0
				break
			}
		}

		if i < len(haystack) {
			found := bytes.Index(haystack[i:], needle)
			if found != -1 {
				return currIndex + int64(i-startOffset) + int64(found)
			}

			needleStart := len(haystack) - len(needle) + 1
			if i < needleStart {
				i = needleStart
			}
			for ; i < len(haystack); i++ {
				if haystack[i] == needle[needleIndex] {
					needleIndex++
				} else if haystack[i] == needle[0] {
					needleIndex = 1
				} else {
					needleIndex = 0
				}
			}
		}

		currIndex += int64(len(haystack) - startOffset)
		startOffset = 0
	}

	return -1
}

// String returns a copy of the view's contents as a string.
func (mv MemView) String() string {
	return string(mv.Bytes())
}

// Equal reports whether left and right hold the same bytes, regardless of
// how each is split across underlying chunks.
func (left MemView) Equal(right MemView) bool {
	if left.length != right.length {
		return false
	}

	leftBufIdx, leftBufOffset := 0, 0
	rightBufIdx, rightBufOffset := 0, 0
	for idx := int64(0); idx < left.length; idx++ {
		for leftBufOffset >= len(left.buf[leftBufIdx]) {
			leftBufIdx++
			leftBufOffset = 0
		}
		for rightBufOffset >= len(right.buf[rightBufIdx]) {
			rightBufIdx++
			rightBufOffset = 0
		}

		if left.buf[leftBufIdx][leftBufOffset] != right.buf[rightBufIdx][rightBufOffset] {
			return false
		}

		leftBufOffset++
		rightBufOffset++
	}

	return true
}
