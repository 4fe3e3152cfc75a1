package i18n

var ptBRMessages = map[Code]string{
	CodePropertyNotFound:        "A propriedade {{.Property}} não foi encontrada",
	CodeUnsupportedPropertyType: "A visão {{.View}} declara a propriedade {{.Property}} com o tipo não suportado {{.Type}}",
	CodeTypeMismatch:            "A propriedade {{.Property}} contém {{.Actual}}, que não pode ser lida como {{.Type}}",
	CodeReadOnlyStorage:         "A propriedade {{.Property}} não pode ser gravada: o armazenamento é somente leitura",
	CodeUnboundProperty:         "A propriedade não está associada a um armazenamento",
	CodeInvalidDocument:         "O documento não é um objeto JSON válido",
	CodeNotFound:                "O documento {{.ID}} não foi encontrado",
	CodeUnknown:                 "Ocorreu um erro inesperado",
}
