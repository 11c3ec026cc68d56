package model

// Client — клиент юридической фирмы (ответ GET /clients/).
type Client struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// AreaOfExpertise — область права, выбирается из справочника
	// GET /areas-of-expertise/.
	AreaOfExpertise string `json:"area_of_expertise"`
}

// ClientInput — тело запроса создания/обновления клиента.
type ClientInput struct {
	Name            string `json:"name"`
	AreaOfExpertise string `json:"area_of_expertise"`
}
