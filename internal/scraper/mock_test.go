package scraper

import (
	"time"

	"sjsage522/pricewatch/services/cache"
)

// mockCacheService implements a simple in-memory cache for testing
type mockCacheService struct {
	data map[string][]byte
	sets int
}

func newMockCacheService() *mockCacheService {
	return &mockCacheService{
		data: make(map[string][]byte),
	}
}

func (m *mockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *mockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockCacheService) Add(key string, value []byte, expiration time.Duration) error {
	if _, ok := m.data[key]; ok {
		return cache.ErrNotStored
	}
	return m.Set(key, value, expiration)
}

func (m *mockCacheService) Delete(key string) error {
	delete(m.data, key)
	return nil
}

const productPage = `<html><body>
<span id="productTitle">  Wireless Mouse M185  </span>
<div id="corePrice_feature_div"><span class="a-price"><span class="a-offscreen">$1,234.56</span></span></div>
<div id="imgTagWrapperId"><img id="landingImage" data-old-hires="https://m.media-amazon.com/images/I/hires.jpg" src="https://m.media-amazon.com/images/I/small.jpg"></div>
</body></html>`

const noImagePage = `<html><body>
<span id="productTitle">Cable Organizer</span>
<span id="priceblock_ourprice">$5.00</span>
</body></html>`

const noTitlePage = `<html><body>
<h1>Sorry, we just need to make sure you're not a robot.</h1>
<span class="a-price"><span class="a-offscreen">$19.99</span></span>
</body></html>`

const noPricePage = `<html><body>
<span id="productTitle">Out of stock item</span>
<div id="availability">Currently unavailable.</div>
</body></html>`

const badPricePage = `<html><body>
<span id="productTitle">Strange listing</span>
<span id="priceblock_dealprice">See price in cart</span>
</body></html>`
