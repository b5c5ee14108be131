package system

import (
	"image"
	"sync"
)

// FramePool переиспользует кадры *image.RGBA одного размера между
// воркерами рендера, чтобы не нагружать GC на каждом кадре превью.
type FramePool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = NewFramePool()

func NewFramePool() *FramePool {
	return &FramePool{pools: make(map[image.Rectangle]*sync.Pool)}
}

// GetFrame возвращает кадр из общего пула. Содержимое не очищается.
func GetFrame(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutFrame возвращает кадр в общий пул.
func PutFrame(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *FramePool) Get(rect image.Rectangle) *image.RGBA {
	return p.pool(rect, true).Get().(*image.RGBA)
}

// Put принимает только кадры размера, для которого уже есть пул
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	if pool := p.pool(img.Rect, false); pool != nil {
		pool.Put(img)
	}
}

func (p *FramePool) pool(rect image.Rectangle, create bool) *sync.Pool {
	p.mu.RLock()
	pool := p.pools[rect]
	p.mu.RUnlock()
	if pool != nil || !create {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// могли создать, пока ждали запись
	if pool = p.pools[rect]; pool == nil {
		pool = &sync.Pool{New: func() any { return image.NewRGBA(rect) }}
		p.pools[rect] = pool
	}
	return pool
}
