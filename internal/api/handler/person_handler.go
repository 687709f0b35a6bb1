package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coach-center/internal/dto"
	"coach-center/internal/model"
	"coach-center/internal/service"
	"coach-center/pkg/response"
)

// PersonHandler 学员 / 教练 HTTP 处理器，每种人员类型一个实例
type PersonHandler struct {
	personSvc  service.PersonService
	personType model.PersonType
	logger     *zap.Logger
}

// NewPersonHandler 创建指定类型的 PersonHandler
func NewPersonHandler(personSvc service.PersonService, pt model.PersonType, logger *zap.Logger) *PersonHandler {
	return &PersonHandler{personSvc: personSvc, personType: pt, logger: logger}
}

// ListPersons 人员列表
// GET /api/v1/members | /api/v1/partners
func (h *PersonHandler) ListPersons(c *gin.Context) {
	var req dto.PersonListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	persons, total, err := h.personSvc.List(c.Request.Context(), h.personType, &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OKPage(c, persons, total, req.GetPage(), req.GetPageSize())
}

// GetPerson 人员详情
func (h *PersonHandler) GetPerson(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	person, err := h.personSvc.GetByID(c.Request.Context(), h.personType, id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, person)
}

// CreatePerson 创建人员
func (h *PersonHandler) CreatePerson(c *gin.Context) {
	var req dto.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	person, err := h.personSvc.Create(c.Request.Context(), h.personType, &req, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.Created(c, person)
}

// UpdatePerson 更新人员（含请假字段）
func (h *PersonHandler) UpdatePerson(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	person, err := h.personSvc.Update(c.Request.Context(), h.personType, id, &req, callerID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, person)
}

// DeletePerson 删除人员
func (h *PersonHandler) DeletePerson(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.personSvc.Delete(c.Request.Context(), h.personType, id, callerID); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	response.OK(c, nil)
}
